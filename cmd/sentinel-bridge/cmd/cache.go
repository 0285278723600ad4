package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/asavelyev/sentinel-bridge/internal/config"
	"github.com/asavelyev/sentinel-bridge/internal/service/panel"
)

// cacheCmd groups the installation metadata cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the installation metadata cache.",
}

// cacheInfoCmd warms the cache for the resolved installation and prints
// its bookkeeping.
var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cached installation metadata.",
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

		installation, err := service.Installation(ctx)
		if err != nil {
			return err
		}

		services, err := service.Services(ctx, installation.ID, false)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		info := service.CacheInfo()

		fmt.Fprintf(out, "TTL:     %s\n", info.TTL)
		fmt.Fprintf(out, "Entries: %d %v\n", info.Size, info.Keys)
		fmt.Fprintf(out, "Panel:   %s (installation %s, retrieved %s)\n",
			services.Panel, services.InstallationID, services.RetrievedAt.Format(time.RFC3339))

		return nil
	},
}

// cacheRefreshCmd bypasses the cache and asks the upstream to rebuild its
// own view of the installation as well.
var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force-refresh the installation metadata.",
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

		installation, err := service.Installation(ctx)
		if err != nil {
			return err
		}

		// Drop the stale entry first so a failed refresh does not leave it behind.
		service.ClearCache(installation.ID)

		services, err := service.Services(ctx, installation.ID, true)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Refreshed panel %s for installation %s.\n",
			services.Panel, services.InstallationID)

		return nil
	},
}

// cacheSetTTLCmd persists a new cache validity window into the settings
// file. The daemon picks it up on its next start.
var cacheSetTTLCmd = &cobra.Command{
	Use:   "set-ttl <duration>",
	Short: "Change the cache TTL, e.g. 5m or 90s.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[0], err)
		}

		if ttl <= 0 {
			return fmt.Errorf("ttl must be positive, got %s", ttl)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		cfg.CacheTTL = ttl
		if err = config.Save(configPath, cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Cache TTL set to %s.\n", ttl)

		return nil
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	cacheCmd.AddCommand(cacheInfoCmd, cacheRefreshCmd, cacheSetTTLCmd)
	rootCmd.AddCommand(cacheCmd)
}
