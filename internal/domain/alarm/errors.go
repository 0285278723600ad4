package alarm

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection marks transient network failures (timeouts, refused
	// connections, 5xx responses). Safe to retry without new input.
	ErrConnection = errors.New("connection error")

	// ErrAuthentication marks rejected credentials. Retrying without new
	// input is pointless, so callers must not auto-retry on it.
	ErrAuthentication = errors.New("authentication error")

	// ErrOTP is the parent of every two-factor failure. Callers that do not
	// care which step broke can match on it alone.
	ErrOTP = errors.New("otp error")

	// ErrInvalidPhoneSelection is returned when the selected phone id is not
	// part of the current challenge. The challenge itself stays untouched.
	ErrInvalidPhoneSelection = fmt.Errorf("%w: selected phone is not in the challenge", ErrOTP)

	// ErrOTPChallengeMissing is returned when OTP data was cleared or came
	// back malformed (no hash or an empty phone list).
	ErrOTPChallengeMissing = fmt.Errorf("%w: challenge data is missing or malformed", ErrOTP)

	// ErrOTPCodeRequired is returned locally, before any network call, when
	// verification is attempted with an empty code.
	ErrOTPCodeRequired = fmt.Errorf("%w: verification code must be provided", ErrOTP)

	// ErrOTPVerification is returned when the upstream rejects the submitted
	// code. A fresh challenge is required before another attempt.
	ErrOTPVerification = fmt.Errorf("%w: verification rejected by upstream", ErrOTP)
)
