package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the bridge daemon and the CLI commands.
type Config struct {
	// API configures the vendor cloud endpoint and account.
	API APIConfig `yaml:"api"`
	// MQTT configures the broker the bridge publishes to.
	MQTT MQTTConfig `yaml:"mqtt"`
	// StateDir is the directory holding the session file and the event log.
	StateDir string `yaml:"state_dir"`
	// CacheTTL is the validity window for cached installation metadata.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// PollInterval is how often the bridge polls alarm status.
	PollInterval time.Duration `yaml:"poll_interval"`
	// MetricsAddress is the Prometheus listen address, empty to disable.
	MetricsAddress string `yaml:"metrics_addr"`
}

// APIConfig holds vendor cloud connection and account settings.
type APIConfig struct {
	// BaseURL is the vendor API root.
	BaseURL string `yaml:"base_url"`
	// Username is the vendor account login.
	Username string `yaml:"username"`
	// Password is the vendor account password.
	Password string `yaml:"password"`
	// Country is the two-letter country code of the account.
	Country string `yaml:"country"`
	// Language is the two-letter language code for vendor messages.
	Language string `yaml:"language"`
	// InstallationID selects a site; empty means the account's first one.
	InstallationID string `yaml:"installation_id"`
	// Timeout is the duration for individual API calls.
	Timeout time.Duration `yaml:"timeout"`
}

// MQTTConfig holds broker connection settings for the bridge daemon.
type MQTTConfig struct {
	// Host is the broker hostname or IP.
	Host string `yaml:"host"`
	// Port is the broker port.
	Port int `yaml:"port"`
	// Username authenticates against the broker, empty for anonymous.
	Username string `yaml:"username"`
	// Password is the broker password.
	Password string `yaml:"password"`
	// ClientID identifies the bridge to the broker.
	ClientID string `yaml:"client_id"`
	// TopicPrefix is the root of all published topics.
	TopicPrefix string `yaml:"topic_prefix"`
	// DiscoveryPrefix is Home Assistant's MQTT discovery root.
	DiscoveryPrefix string `yaml:"discovery_prefix"`
}

const (
	// DefaultConfigFilename is the default filename for bridge settings.
	DefaultConfigFilename = "sentinel-bridge.yaml"

	// DefaultBaseURL is the vendor cloud API root.
	DefaultBaseURL = "https://customers.sentinelcloud.example/owa-api/graphql"

	// DefaultTimeout is the default duration for vendor API calls.
	DefaultTimeout = 15 * time.Second

	// DefaultCacheTTL is the default validity window for cached
	// installation metadata.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultPollInterval is the default alarm status polling interval.
	DefaultPollInterval = time.Minute

	// DefaultMQTTPort is the default broker port.
	DefaultMQTTPort = 1883

	// DefaultClientID identifies the bridge to the broker.
	DefaultClientID = "sentinel-bridge"

	// DefaultTopicPrefix is the root of all published topics.
	DefaultTopicPrefix = "sentinel"

	// DefaultDiscoveryPrefix is Home Assistant's standard discovery root.
	DefaultDiscoveryPrefix = "homeassistant"

	// DefaultFilePermissions is the default file permission for config
	// and state files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUsernameRequired is returned when the account login is missing.
	errUsernameRequired = errors.New("api.username must be provided")
	// errPasswordRequired is returned when the account password is missing.
	errPasswordRequired = errors.New("api.password must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file carries account credentials.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills in defaults for the rest.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.API.Username == "" {
		return errUsernameRequired
	}

	if cfg.API.Password == "" {
		return errPasswordRequired
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}

	if _, err := url.ParseRequestURI(cfg.API.BaseURL); err != nil {
		return fmt.Errorf("invalid api.base_url: %w", err)
	}

	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = DefaultTimeout
	}

	if cfg.StateDir == "" {
		cfg.StateDir = "."
	}

	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	if cfg.MQTT.Port <= 0 {
		cfg.MQTT.Port = DefaultMQTTPort
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = DefaultClientID
	}

	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = DefaultTopicPrefix
	}

	if cfg.MQTT.DiscoveryPrefix == "" {
		cfg.MQTT.DiscoveryPrefix = DefaultDiscoveryPrefix
	}

	return nil
}
