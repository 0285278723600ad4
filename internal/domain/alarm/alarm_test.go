package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSessionClone verifies that Clone deep-copies the data map and handles nil.
func TestSessionClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Session)(nil).Clone())

	s := &Session{
		Username:  "o.kuznetsov",
		Token:     "tok-123",
		Data:      map[string]string{"hash": "abc"},
		Expiry:    time.Now().Add(time.Hour),
		LoginTime: time.Now(),
	}

	c := s.Clone()
	require.Equal(t, s, c)
	require.NotSame(t, s, c)

	c.Data["hash"] = "mutated"
	require.Equal(t, "abc", s.Data["hash"])
}

// TestSessionExpired covers nil, zero-expiry and past-expiry sessions.
func TestSessionExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	require.True(t, (*Session)(nil).Expired(now))

	open := &Session{Token: "t"}
	require.False(t, open.Expired(now))

	stale := &Session{Token: "t", Expiry: now.Add(-time.Minute)}
	require.True(t, stale.Expired(now))

	fresh := &Session{Token: "t", Expiry: now.Add(time.Minute)}
	require.False(t, fresh.Expired(now))
}

// TestOTPChallengeHasPhone checks membership against the phone list.
func TestOTPChallengeHasPhone(t *testing.T) {
	t.Parallel()

	c := NewOTPChallenge([]OTPPhone{
		{ID: 0, Number: "**********768"},
		{ID: 1, Number: "**********902"},
	}, "hash-1")

	require.True(t, c.HasPhone(0))
	require.True(t, c.HasPhone(1))
	require.False(t, c.HasPhone(99))
	require.False(t, (*OTPChallenge)(nil).HasPhone(0))
}

// TestOTPChallengeValidate covers the dispatch invariants: hash present,
// non-empty phone list and a selection referencing a listed phone.
func TestOTPChallengeValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, (*OTPChallenge)(nil).Validate(), ErrOTPChallengeMissing)

	noHash := NewOTPChallenge([]OTPPhone{{ID: 0}}, "")
	require.ErrorIs(t, noHash.Validate(), ErrOTPChallengeMissing)

	noPhones := NewOTPChallenge(nil, "hash")
	require.ErrorIs(t, noPhones.Validate(), ErrOTPChallengeMissing)

	unselected := NewOTPChallenge([]OTPPhone{{ID: 0}}, "hash")
	require.ErrorIs(t, unselected.Validate(), ErrInvalidPhoneSelection)

	selected := NewOTPChallenge([]OTPPhone{{ID: 0}}, "hash")
	selected.SelectedPhoneID = 0
	require.NoError(t, selected.Validate())
}

// TestOTPErrorsShareParent ensures every OTP failure matches ErrOTP.
func TestOTPErrorsShareParent(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		ErrInvalidPhoneSelection,
		ErrOTPChallengeMissing,
		ErrOTPCodeRequired,
		ErrOTPVerification,
	} {
		require.ErrorIs(t, err, ErrOTP)
	}
}

// TestArmModeValid checks the supported arming levels.
func TestArmModeValid(t *testing.T) {
	t.Parallel()

	require.True(t, ArmModeAway.Valid())
	require.True(t, ArmModeHome.Valid())
	require.True(t, ArmModeNight.Valid())
	require.False(t, ArmMode("panic").Valid())
	require.False(t, ArmMode("").Valid())
}
