package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/asavelyev/sentinel-bridge/internal/auth"
	"github.com/asavelyev/sentinel-bridge/internal/service/panel"
)

// logoutCmd drops the persisted session.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and delete the persisted session.",
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

		// Resume only; there is nothing to log out of without a session,
		// and a fresh login just to tear it down again would be silly.
		resumed, err := service.Auth().Resume(ctx)
		if err != nil {
			return err
		}

		if !resumed {
			fmt.Fprintln(cmd.OutOrStdout(), "No persisted session.")

			return nil
		}

		if err = service.Logout(ctx); err != nil {
			if errors.Is(err, auth.ErrNotAuthenticated) {
				fmt.Fprintln(cmd.OutOrStdout(), "No active session.")

				return nil
			}

			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Logged out, session deleted.")

		return nil
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(logoutCmd)
}
