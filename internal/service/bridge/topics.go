package bridge

import (
	"encoding/json"
	"fmt"

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
)

// Topics builds the MQTT topic names for one installation.
type Topics struct {
	// Prefix is the bridge's topic root, e.g. "sentinel".
	Prefix string
	// DiscoveryPrefix is Home Assistant's discovery root, e.g. "homeassistant".
	DiscoveryPrefix string
	// InstallationID scopes the state and command topics to one site.
	InstallationID string
}

// Availability returns the retained online/offline topic shared by all
// entities of this bridge.
func (t Topics) Availability() string {
	return fmt.Sprintf("%s/bridge/availability", t.Prefix)
}

// State returns the alarm state topic.
func (t Topics) State() string {
	return fmt.Sprintf("%s/%s/alarm/state", t.Prefix, t.InstallationID)
}

// Command returns the topic Home Assistant publishes panel commands to.
func (t Topics) Command() string {
	return fmt.Sprintf("%s/%s/alarm/set", t.Prefix, t.InstallationID)
}

// Discovery returns the Home Assistant discovery config topic for the
// alarm_control_panel entity.
func (t Topics) Discovery() string {
	return fmt.Sprintf("%s/alarm_control_panel/sentinel_%s/config", t.DiscoveryPrefix, t.InstallationID)
}

// discoveryPayload is the Home Assistant MQTT discovery document for the
// alarm_control_panel entity.
type discoveryPayload struct {
	Name               string   `json:"name"`
	UniqueID           string   `json:"unique_id"`
	StateTopic         string   `json:"state_topic"`
	CommandTopic       string   `json:"command_topic"`
	AvailabilityTopic  string   `json:"availability_topic"`
	SupportedFeatures  []string `json:"supported_features"`
	CodeArmRequired    bool     `json:"code_arm_required"`
	CodeDisarmRequired bool     `json:"code_disarm_required"`
	Device             struct {
		Identifiers  []string `json:"identifiers"`
		Name         string   `json:"name"`
		Manufacturer string   `json:"manufacturer"`
		Model        string   `json:"model"`
	} `json:"device"`
}

// DiscoveryPayload renders the discovery document for the installation.
func (t Topics) DiscoveryPayload(installation domain.Installation) ([]byte, error) {
	name := installation.Alias
	if name == "" {
		name = fmt.Sprintf("Alarm %s", installation.ID)
	}

	payload := discoveryPayload{
		Name:              name,
		UniqueID:          fmt.Sprintf("sentinel_%s_alarm", installation.ID),
		StateTopic:        t.State(),
		CommandTopic:      t.Command(),
		AvailabilityTopic: t.Availability(),
		SupportedFeatures: []string{"arm_home", "arm_away", "arm_night"},
	}
	payload.Device.Identifiers = []string{"sentinel_" + installation.ID}
	payload.Device.Name = name
	payload.Device.Manufacturer = "Sentinel"
	payload.Device.Model = installation.Panel

	return json.Marshal(payload)
}

// haState maps vendor panel status codes onto Home Assistant
// alarm_control_panel states.
func haState(status string) string {
	switch status {
	case "D":
		return "disarmed"
	case "T":
		return "armed_away"
	case "P":
		return "armed_home"
	case "Q":
		return "armed_night"
	case "A":
		return "triggered"
	default:
		return "unknown"
	}
}

// commandMode maps Home Assistant panel commands onto domain arm modes.
// The empty mode with ok=true means disarm.
func commandMode(command string) (domain.ArmMode, bool) {
	switch command {
	case "ARM_AWAY":
		return domain.ArmModeAway, true
	case "ARM_HOME":
		return domain.ArmModeHome, true
	case "ARM_NIGHT":
		return domain.ArmModeNight, true
	case "DISARM":
		return "", true
	default:
		return "", false
	}
}
