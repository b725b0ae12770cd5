package commands

import (
	"context"
	"fmt"

	dockerpkg "github.com/dyluth/veil/internal/docker"
	"github.com/dyluth/veil/internal/hub"
	"github.com/dyluth/veil/internal/printer"
	"github.com/spf13/cobra"
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop a local presence hub",
	Long: `Stop and remove the hub container for a session.

All presence held by the hub is discarded. The command does not prompt for
confirmation.`,
	RunE: runDown,
}

func init() {
	rootCmd.AddCommand(downCmd)
}

func runDown(cmd *cobra.Command, args []string) error {
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

	printer.Step("Removing hub for session '%s'...\n", session)
	found, err := hub.Stop(ctx, cli, session)
	if err != nil {
		return fmt.Errorf("failed to stop hub: %w", err)
	}
	if !found {
		return printer.Error(
			fmt.Sprintf("hub for session '%s' not found", session),
			"",
			[]string{"Run 'veil hubs' to see running hubs"},
		)
	}

	printer.Success("Hub for session '%s' removed\n", session)
	return nil
}
