package alarm

import "time"

// AlarmStatus is a point-in-time snapshot of the panel state.
// It is returned by value and never mutated after construction.
type AlarmStatus struct {
	// Status is the vendor status code, e.g. "D" (disarmed) or "T" (total).
	Status string
	// Message is the vendor status description.
	Message string
	// Timestamp is when the panel reported the state.
	Timestamp time.Time
}

// ArmResult is the immutable outcome of an arm command.
type ArmResult struct {
	// Success reports whether the panel accepted the command.
	Success bool
	// Message is the vendor response text.
	Message string
	// Status is the panel status code after the command.
	Status string
}

// DisarmResult is the immutable outcome of a disarm command.
type DisarmResult struct {
	// Success reports whether the panel accepted the command.
	Success bool
	// Message is the vendor response text.
	Message string
	// Status is the panel status code after the command.
	Status string
}

// LoginOutcome is what the transport reports back from a login attempt
// that did not fail outright.
type LoginOutcome struct {
	// Session is the established session when login succeeded directly.
	Session *Session
	// NeedDeviceAuth reports that the vendor requires device authorization
	// before granting a session.
	NeedDeviceAuth bool
	// Challenge carries the OTP phones and hash when NeedDeviceAuth is set.
	Challenge *OTPChallenge
}
