// Package config loads, validates and saves the YAML settings file
// shared by the bridge daemon and the CLI commands.
package config
