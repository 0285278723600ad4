package cloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
)

// testCreds returns a credential set for wire tests.
func testCreds() domain.Credentials {
	return domain.Credentials{
		Username: "o.kuznetsov",
		Password: "secret",
		Country:  "ES",
		Language: "es",
		DeviceID: "device-1",
	}
}

// signedToken builds a real JWT with the given expiry for expiry-claim tests.
func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": expiry.Unix(),
		"sub": "o.kuznetsov",
	})

	signed, err := token.SignedString([]byte("vendor-key"))
	require.NoError(t, err)

	return signed
}

// newTestClient spins up an httptest server with the given handler and a
// client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	return client
}

// decodeRequest unmarshals the request body into a generic map.
func decodeRequest(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

	return payload
}

// TestLogin_DirectSuccess covers the straight Idle -> Authenticated path
// and checks the granted token is installed for subsequent calls.
func TestLogin_DirectSuccess(t *testing.T) {
	t.Parallel()

	expiry := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	token := signedToken(t, expiry)

	var sawAuthHeader string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		payload := decodeRequest(t, r)

		switch payload["operation"] {
		case "login":
			require.Equal(t, "o.kuznetsov", payload["user"])
			require.Equal(t, "device-1", payload["id_device"])
			_ = json.NewEncoder(w).Encode(map[string]any{
				"res":     "OK",
				"hash":    token,
				"session": map[string]string{"loginId": "42"},
			})
		case "installations":
			sawAuthHeader = r.Header.Get("Authorization")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"res":           "OK",
				"installations": []map[string]any{{"numinst": "12345", "alias": "Home", "panel": "PROTOCOL"}},
			})
		}
	})

	outcome, err := client.Login(context.Background(), testCreds())
	require.NoError(t, err)
	require.False(t, outcome.NeedDeviceAuth)
	require.NotNil(t, outcome.Session)
	require.Equal(t, token, outcome.Session.Token)
	require.Equal(t, "42", outcome.Session.Data["loginId"])
	require.Equal(t, expiry.Unix(), outcome.Session.Expiry.Unix())

	installations, err := client.Installations(context.Background())
	require.NoError(t, err)
	require.Len(t, installations, 1)
	require.Equal(t, "12345", installations[0].ID)
	require.Equal(t, "Bearer "+token, sawAuthHeader)
}

// TestLogin_DeviceAuthorizationRequired surfaces the OTP challenge.
func TestLogin_DeviceAuthorizationRequired(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"res":                     "KO",
			"needDeviceAuthorization": true,
			"phones": []map[string]any{
				{"id": 0, "phone": "**********768"},
				{"id": 1, "phone": "**********902"},
			},
			"otp_hash": "challenge-hash",
		})
	})

	outcome, err := client.Login(context.Background(), testCreds())
	require.NoError(t, err)
	require.True(t, outcome.NeedDeviceAuth)
	require.Nil(t, outcome.Session)
	require.NotNil(t, outcome.Challenge)
	require.Equal(t, "challenge-hash", outcome.Challenge.Hash)
	require.Len(t, outcome.Challenge.Phones, 2)
	require.Equal(t, domain.NoPhoneSelected, outcome.Challenge.SelectedPhoneID)
}

// TestLogin_BadCredentials maps a vendor rejection to ErrAuthentication.
func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"res": "KO",
			"msg": "Invalid user or password",
		})
	})

	_, err := client.Login(context.Background(), testCreds())
	require.ErrorIs(t, err, domain.ErrAuthentication)
	require.NotErrorIs(t, err, domain.ErrConnection)
}

// TestCall_ConnectionErrors maps refused connections and 5xx responses
// to the retriable ErrConnection kind.
func TestCall_ConnectionErrors(t *testing.T) {
	t.Parallel()

	// Server shut down before the call: dial failure.
	server := httptest.NewServer(http.NotFoundHandler())
	address := server.URL
	server.Close()

	dead, err := NewClient(address)
	require.NoError(t, err)

	_, err = dead.Installations(context.Background())
	require.ErrorIs(t, err, domain.ErrConnection)

	// Upstream 500.
	flaky := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err = flaky.Installations(context.Background())
	require.ErrorIs(t, err, domain.ErrConnection)
}

// TestCall_UnauthorizedMapsToAuthenticationError distinguishes a dead
// session from a connectivity problem.
func TestCall_UnauthorizedMapsToAuthenticationError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.AlarmStatus(context.Background(), "12345", "PROTOCOL")
	require.ErrorIs(t, err, domain.ErrAuthentication)
}

// TestSendOTP covers dispatch success and the malformed-challenge rejection.
func TestSendOTP(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		payload := decodeRequest(t, r)
		require.Equal(t, "send_otp", payload["operation"])

		if payload["otp_hash"] == "challenge-hash" {
			_ = json.NewEncoder(w).Encode(map[string]any{"res": "OK"})

			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"res": "KO", "msg": "unknown challenge"})
	})

	require.NoError(t, client.SendOTP(context.Background(), 1, "challenge-hash"))

	err := client.SendOTP(context.Background(), 1, "stale-hash")
	require.ErrorIs(t, err, domain.ErrOTP)
}

// TestVerifyOTP covers acceptance (session granted) and rejection.
func TestVerifyOTP(t *testing.T) {
	t.Parallel()

	token := signedToken(t, time.Now().Add(time.Hour))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		payload := decodeRequest(t, r)
		require.Equal(t, "verify_otp", payload["operation"])

		if payload["code"] == "123456" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"res":  "OK",
				"hash": token,
				"user": "o.kuznetsov",
			})

			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"res": "KO", "msg": "wrong code"})
	})

	session, err := client.VerifyOTP(context.Background(), "123456")
	require.NoError(t, err)
	require.Equal(t, token, session.Token)
	require.Equal(t, "o.kuznetsov", session.Username)

	_, err = client.VerifyOTP(context.Background(), "000000")
	require.ErrorIs(t, err, domain.ErrOTPVerification)
}

// TestArm maps domain modes onto vendor request codes and echoes the
// current status through.
func TestArm(t *testing.T) {
	t.Parallel()

	var sawRequest, sawCurrentStatus string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		payload := decodeRequest(t, r)
		sawRequest, _ = payload["request"].(string)
		sawCurrentStatus, _ = payload["current_status"].(string)
		_ = json.NewEncoder(w).Encode(map[string]any{"res": "OK", "msg": "armed", "status": "T"})
	})

	result, err := client.Arm(context.Background(), "12345", domain.ArmModeNight, "PROTOCOL", "D")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "T", result.Status)
	require.Equal(t, "ARMNIGHT1", sawRequest)
	require.Equal(t, "D", sawCurrentStatus)

	_, err = client.Arm(context.Background(), "12345", domain.ArmMode("panic"), "PROTOCOL", "D")
	require.Error(t, err)
}

// TestDisarm sends the vendor disarm request code.
func TestDisarm(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		payload := decodeRequest(t, r)
		require.Equal(t, "DARM1", payload["request"])
		_ = json.NewEncoder(w).Encode(map[string]any{"res": "OK", "msg": "disarmed", "status": "D"})
	})

	result, err := client.Disarm(context.Background(), "12345", "PROTOCOL")
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "D", result.Status)
}

// TestTokenExpiry_Fallback uses a fixed lifetime for tokens that are not JWTs.
func TestTokenExpiry_Fallback(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	got := tokenExpiry("not-a-jwt", now)
	require.Equal(t, now.Add(6*time.Hour), got)
}
