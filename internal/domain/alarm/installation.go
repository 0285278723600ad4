package alarm

import "time"

// Installation is one customer site (alarm system) on the vendor account.
type Installation struct {
	// ID is the vendor installation number.
	ID string
	// Alias is the human-readable site name.
	Alias string
	// Panel is the panel protocol identifier used by arm/disarm calls.
	Panel string
}

// InstallationServices is the panel/capabilities metadata for one
// installation, as returned by the vendor services endpoint.
type InstallationServices struct {
	// InstallationID is the installation the metadata belongs to.
	InstallationID string
	// Panel is the panel protocol identifier.
	Panel string
	// Capabilities is the opaque capabilities token required by some calls.
	Capabilities string
	// RetrievedAt is when the metadata was fetched upstream.
	RetrievedAt time.Time
}

// ArmMode enumerates the supported arming levels.
type ArmMode string

const (
	// ArmModeAway arms the full perimeter and interior.
	ArmModeAway ArmMode = "away"
	// ArmModeHome arms the perimeter only.
	ArmModeHome ArmMode = "home"
	// ArmModeNight arms the night partition.
	ArmModeNight ArmMode = "night"
)

// Valid reports whether the mode is one of the supported arming levels.
func (m ArmMode) Valid() bool {
	switch m {
	case ArmModeAway, ArmModeHome, ArmModeNight:
		return true
	default:
		return false
	}
}
