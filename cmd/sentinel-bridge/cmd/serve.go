package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/asavelyev/sentinel-bridge/internal/service/bridge"
)

// serveCmd runs the bridge daemon until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MQTT bridge daemon.",
	Long: `Runs the bridge daemon that mirrors the alarm into Home Assistant.

The daemon logs in with the persisted session or the configured credentials,
publishes the alarm_control_panel discovery config, polls the panel state on
the configured interval and executes arm/disarm commands received over MQTT.
Accounts that require device authorization must complete the interactive
login command once before the daemon can start unattended.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return bridge.Run(ctx, &bridge.Options{ConfigPath: configPath})
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(serveCmd)
}
