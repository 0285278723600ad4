package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/asavelyev/sentinel-bridge/internal/service/panel"
)

// disarmCmd fully disarms the panel.
var disarmCmd = &cobra.Command{
	Use:   "disarm",
	Short: "Disarm the alarm panel.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		service, _, err := panel.Bootstrap(configPath)
		if err != nil {
			return err
		}

		defer func() {
			_ = service.Close()
		}()

		if err = service.EnsureAuthenticated(ctx); err != nil {
			return err
		}

		result, err := service.Disarm(ctx)
		if err != nil {
			return err
		}

		if !result.Success {
			return fmt.Errorf("disarm rejected: %s", result.Message)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Disarmed: %s [%s]\n", result.Message, result.Status)

		return nil
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(disarmCmd)
}
