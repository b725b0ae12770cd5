package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/veil/internal/config"
	dockerpkg "github.com/dyluth/veil/internal/docker"
	"github.com/dyluth/veil/internal/hub"
	"github.com/dyluth/veil/internal/printer"
	"github.com/spf13/cobra"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start a local presence hub",
	Long: `Start a Redis container that carries the session's shared presence.

The hub is published on the first free localhost port in 6379-6478 and its
URL is printed so it can be passed to --redis-url or VEIL_REDIS_URL.

Examples:
  # Start the hub for the configured session
  veil up

  # Start a hub for a named session
  veil up --session design-review`,
	RunE: runUp,
}

func init() {
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	session := sessionOrConfig(cfg)

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	printer.Step("Starting hub for session '%s' (%s)...\n", session, cfg.Hub.Image)
	info, err := hub.Start(ctx, cli, session, cfg.Hub.Image)
	if err != nil {
		return printer.Error(
			"failed to start hub",
			err.Error(),
			[]string{
				fmt.Sprintf("Stop the existing hub: veil down --session %s", session),
				"List hubs: veil hubs",
			},
		)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := hub.WaitReady(waitCtx, info.URL, 500*time.Millisecond); err != nil {
		printer.Warning("%v\n", err)
	}

	printer.Success("Hub for session '%s' started\n\n", session)
	printer.Info("Redis URL: %s\n\n", info.URL)
	printer.Info("Next steps:\n")
	printer.Info("  export %s=%s\n", config.EnvRedisURL, info.URL)
	printer.Info("  veil watch --session %s\n", session)
	return nil
}
