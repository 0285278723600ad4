package cloud

import (
	"context"
	"fmt"
	"time"

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
)

// loginRequest is the wire payload of the login operation.
type loginRequest struct {
	Operation string `json:"operation"`
	Username  string `json:"user"`
	Password  string `json:"pass"`
	Country   string `json:"country"`
	Language  string `json:"lang"`
	DeviceID  string `json:"id_device"`
}

// loginResponse is the wire result of the login operation.
type loginResponse struct {
	envelope

	// Hash is the session bearer token on direct success.
	Hash string `json:"hash"`
	// NeedDeviceAuthorization flags the two-factor flow.
	NeedDeviceAuthorization bool `json:"needDeviceAuthorization"`
	// Phones lists OTP delivery targets when device authorization is needed.
	Phones []phoneDTO `json:"phones"`
	// OTPHash is the challenge token for the OTP dispatch call.
	OTPHash string `json:"otp_hash"`
	// Session carries opaque vendor session values to send back later.
	Session map[string]string `json:"session"`
}

// phoneDTO is one masked OTP delivery target on the wire.
type phoneDTO struct {
	ID    int    `json:"id"`
	Phone string `json:"phone"`
}

// Login submits credentials. Three outcomes are possible: an established
// session, a device-authorization challenge, or a typed error. Rejected
// credentials map to ErrAuthentication.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginOutcome, error) {
	var resp loginResponse

	err := c.call(ctx, loginRequest{
		Operation: "login",
		Username:  creds.Username,
		Password:  creds.Password,
		Country:   creds.Country,
		Language:  creds.Language,
		DeviceID:  creds.DeviceID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if resp.NeedDeviceAuthorization {
		phones := make([]domain.OTPPhone, 0, len(resp.Phones))
		for _, p := range resp.Phones {
			phones = append(phones, domain.OTPPhone{ID: p.ID, Number: p.Phone})
		}

		return &domain.LoginOutcome{
			NeedDeviceAuth: true,
			Challenge:      domain.NewOTPChallenge(phones, resp.OTPHash),
		}, nil
	}

	if resp.Res != "OK" || resp.Hash == "" {
		return nil, fmt.Errorf("login: %w: %s", domain.ErrAuthentication, resp.Msg)
	}

	return &domain.LoginOutcome{
		Session: c.buildSession(creds.Username, resp.Hash, resp.Session),
	}, nil
}

// otpRequest is the wire payload of the OTP dispatch and verify operations.
type otpRequest struct {
	Operation string `json:"operation"`
	PhoneID   int    `json:"phone_id,omitempty"`
	OTPHash   string `json:"otp_hash,omitempty"`
	Code      string `json:"code,omitempty"`
}

// otpResponse is the wire result of the OTP verify operation.
type otpResponse struct {
	envelope

	// Hash is the session bearer token granted after verification.
	Hash string `json:"hash"`
	// Session carries opaque vendor session values.
	Session map[string]string `json:"session"`
	// Username echoes the account the session belongs to.
	Username string `json:"user"`
}

// SendOTP asks the vendor to dispatch a code to the selected phone.
func (c *Client) SendOTP(ctx context.Context, phoneID int, otpHash string) error {
	var resp envelope

	err := c.call(ctx, otpRequest{
		Operation: "send_otp",
		PhoneID:   phoneID,
		OTPHash:   otpHash,
	}, &resp)
	if err != nil {
		return fmt.Errorf("send otp: %w", err)
	}

	if resp.Res != "OK" {
		return fmt.Errorf("send otp: %w: %s", domain.ErrOTPChallengeMissing, resp.Msg)
	}

	return nil
}

// VerifyOTP submits the received code and returns the granted session on
// acceptance. Rejection maps to ErrOTPVerification.
func (c *Client) VerifyOTP(ctx context.Context, code string) (*domain.Session, error) {
	var resp otpResponse

	err := c.call(ctx, otpRequest{
		Operation: "verify_otp",
		Code:      code,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}

	if resp.Res != "OK" || resp.Hash == "" {
		return nil, fmt.Errorf("verify otp: %w: %s", domain.ErrOTPVerification, resp.Msg)
	}

	return c.buildSession(resp.Username, resp.Hash, resp.Session), nil
}

// buildSession assembles a domain session from a granted token and
// installs its bearer token on the client.
func (c *Client) buildSession(username, hash string, data map[string]string) *domain.Session {
	now := time.Now()
	session := &domain.Session{
		Username:  username,
		Token:     hash,
		Data:      data,
		Expiry:    tokenExpiry(hash, now),
		LoginTime: now,
	}

	c.UseSession(session)

	return session
}
