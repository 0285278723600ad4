package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/asavelyev/sentinel-bridge/internal/config"
	"github.com/asavelyev/sentinel-bridge/internal/logger"
	"github.com/asavelyev/sentinel-bridge/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel selects the logging verbosity for all commands.
	logLevel string

	// rootCmd represents the base command of the bridge CLI.
	rootCmd = &cobra.Command{
		Use:   "sentinel-bridge",
		Short: "Bridge a Sentinel cloud alarm into Home Assistant over MQTT.",
		Long: `Controls a Sentinel cloud alarm account and bridges it into Home Assistant.

The serve command runs the bridge daemon: it logs in, announces the alarm
panel via MQTT discovery and keeps its state in sync with the vendor cloud.
The remaining commands are one-shot operations against the same account:
interactive login with OTP device authorization, status, arm, disarm,
logout and cache administration. All commands share the settings file.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the sentinel-bridge CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup persistent flags shared by every subcommand.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&logLevel, "log-level", "l", "info", "logging level (debug, info, warn, error)")
}
