package commands

import (
	"fmt"

	"github.com/dyluth/veil/internal/printer"
	"github.com/dyluth/veil/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter veil.yml",
	Long: `Write a starter veil.yml at --config with every setting at its default.

The --session and --redis-url flags, when given, are written into the file.

Use --force to overwrite an existing veil.yml.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing veil.yml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	params := scaffold.Params{Session: sessionName, RedisURL: redisURL}
	if err := scaffold.Initialize(configPath, params, forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	printer.Success("Created %s\n", configPath)
	printer.Info("\nNext steps:\n")
	printer.Info("  1. Run 'veil up' to start a local presence hub\n")
	printer.Info("  2. Run 'veil put <participant-id>' to publish presence through the veil\n")
	printer.Info("  3. Run 'veil watch' to see what other participants see\n")
	return nil
}
