package auth

// State is the phase of the login state machine.
type State int

const (
	// StateIdle means no login attempt is in flight and no session is held.
	StateIdle State = iota
	// StateAwaitingDeviceAuth means the upstream demanded device
	// authorization and a phone must be selected.
	StateAwaitingDeviceAuth
	// StateAwaitingOTP means a phone was selected and the machine waits
	// for the received code.
	StateAwaitingOTP
	// StateAuthenticated means a session is established.
	StateAuthenticated
	// StateFailed is a terminal failure; only Reset leaves it.
	StateFailed
)

// String returns the lowercase state name for logs and errors.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingDeviceAuth:
		return "awaiting-device-auth"
	case StateAwaitingOTP:
		return "awaiting-otp"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
