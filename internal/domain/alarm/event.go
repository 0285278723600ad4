package alarm

import "time"

// EventKind classifies entries in the audit log.
type EventKind string

const (
	// EventLogin records a completed authentication.
	EventLogin EventKind = "login"
	// EventLogout records a session teardown.
	EventLogout EventKind = "logout"
	// EventArm records an arm command.
	EventArm EventKind = "arm"
	// EventDisarm records a disarm command.
	EventDisarm EventKind = "disarm"
)

// Event is one audit log entry.
type Event struct {
	// Kind classifies the event.
	Kind EventKind
	// InstallationID is the affected site, empty for account-level events.
	InstallationID string
	// Mode is the arm mode for arm events, empty otherwise.
	Mode string
	// Success reports whether the operation succeeded.
	Success bool
	// Message is the vendor or local outcome description.
	Message string
	// Timestamp is when the event happened.
	Timestamp time.Time
}
