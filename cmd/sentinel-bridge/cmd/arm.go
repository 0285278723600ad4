package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
	"github.com/asavelyev/sentinel-bridge/internal/service/panel"
)

// armCmd arms the panel at the requested level.
var armCmd = &cobra.Command{
	Use:   "arm {away|home|night}",
	Short: "Arm the alarm panel.",
	Long: `Arms the alarm panel at the requested level.

Levels map to the vendor's arming modes: away arms everything, home arms
the perimeter only, night arms the night partition. The panel's current
state is polled first, as the vendor requires it echoed with the command.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"away", "home", "night"},
	RunE: func(cmd *cobra.Command, args []string) error {
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

		result, err := service.Arm(ctx, domain.ArmMode(args[0]))
		if err != nil {
			return err
		}

		if !result.Success {
			return fmt.Errorf("arm rejected: %s", result.Message)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Armed (%s): %s [%s]\n", args[0], result.Message, result.Status)

		return nil
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(armCmd)
}
