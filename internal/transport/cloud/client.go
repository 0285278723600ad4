package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/asavelyev/sentinel-bridge/internal/config"
	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
)

// Client talks to the vendor cloud API. All operations post a JSON
// envelope to the single API endpoint and decode a res/msg envelope back.
//
// The client carries the bearer token of the active session; the auth
// manager installs and clears it via UseSession.
type Client struct {
	// baseURL is the vendor API endpoint.
	baseURL string
	// httpClient performs the actual requests.
	httpClient *http.Client
	// callTimeout is the default timeout for individual API calls.
	callTimeout time.Duration

	// mu protects token.
	mu sync.RWMutex
	// token is the bearer token of the active session, empty when logged out.
	token string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for API calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client, mostly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// errBaseURLRequired is returned when the endpoint address is missing.
var errBaseURLRequired = errors.New("base URL must be provided")

// NewClient creates a vendor API client for the given endpoint.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{},
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// UseSession installs the session's bearer token for subsequent calls.
// Passing nil clears it.
func (c *Client) UseSession(session *domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if session == nil {
		c.token = ""

		return
	}

	c.token = session.Token
}

// envelope is the common response wrapper of the vendor API.
type envelope struct {
	// Res is "OK" on success and "KO" on a vendor-level failure.
	Res string `json:"res"`
	// Msg is the human-readable outcome description.
	Msg string `json:"msg"`
	// Err is the vendor error code accompanying a "KO" result.
	Err string `json:"err"`
}

// call posts the operation payload and decodes the response into out,
// which must embed envelope. Network and server-side failures are mapped
// onto the domain error taxonomy:
//   - transport errors, timeouts and 5xx responses wrap ErrConnection,
//   - 401 responses wrap ErrAuthentication.
//
// Vendor-level "KO" results are left for the caller to interpret, since
// their meaning depends on the operation.
func (c *Client) call(ctx context.Context, payload, out any) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: upstream rejected the session (HTTP 401)", domain.ErrAuthentication)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: upstream returned HTTP %d", domain.ErrConnection, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("upstream returned HTTP %d", resp.StatusCode)
	}

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrConnection, err)
	}

	if err = json.Unmarshal(contents, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// currentToken returns the installed bearer token, if any.
func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

// tokenExpiry reads the exp claim of the vendor token without verifying
// the signature (the vendor holds the key). Tokens that do not parse as a
// JWT fall back to a conservative fixed lifetime.
func tokenExpiry(raw string, now time.Time) time.Time {
	const fallbackLifetime = 6 * time.Hour

	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return now.Add(fallbackLifetime)
	}

	expiry, err := token.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return now.Add(fallbackLifetime)
	}

	return expiry.Time
}
