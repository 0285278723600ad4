package alarm

import (
	"maps"
	"time"
)

// Credentials carry everything the vendor login endpoint needs.
type Credentials struct {
	// Username is the vendor account login.
	Username string
	// Password is the vendor account password.
	Password string
	// Country is the two-letter country code of the account.
	Country string
	// Language is the two-letter language code for vendor messages.
	Language string
	// DeviceID identifies this client installation to the vendor.
	DeviceID string
}

// Session is an authenticated vendor session. It is owned exclusively by
// the auth manager: mutated on login/refresh, destroyed on logout or
// detected expiry.
type Session struct {
	// Username is the account the session belongs to.
	Username string `json:"username"`
	// Token is the bearer token returned by the vendor.
	Token string `json:"token"`
	// Data holds opaque vendor session values (cookies, hashes, ids).
	Data map[string]string `json:"data,omitempty"`
	// Expiry is when the token stops being accepted.
	Expiry time.Time `json:"expiry"`
	// LoginTime is when the session was established.
	LoginTime time.Time `json:"login_time"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	cloned := *s
	cloned.Data = maps.Clone(s.Data)

	return &cloned
}

// Expired reports whether the session is past its expiry at the given
// instant. Sessions without a known expiry never expire locally.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}

	return !s.Expiry.IsZero() && now.After(s.Expiry)
}
