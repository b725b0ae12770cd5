package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	dockerpkg "github.com/dyluth/veil/internal/docker"
	"github.com/dyluth/veil/internal/hub"
	"github.com/dyluth/veil/internal/printer"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	hubsJSON bool
)

var hubsCmd = &cobra.Command{
	Use:   "hubs",
	Short: "List local presence hubs",
	Long: `List every hub container started by 'veil up'.

Use --json for machine-readable output.`,
	RunE: runHubs,
}

func init() {
	hubsCmd.Flags().BoolVar(&hubsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(hubsCmd)
}

func runHubs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	infos, err := hub.List(ctx, cli)
	if err != nil {
		return err
	}

	if hubsJSON {
		return outputHubsJSON(infos)
	}
	return outputHubsTable(infos)
}

func outputHubsJSON(infos []hub.Info) error {
	if infos == nil {
		infos = []hub.Info{}
	}
	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal hubs: %w", err)
	}
	printer.Info("%s\n", data)
	return nil
}

func outputHubsTable(infos []hub.Info) error {
	if len(infos) == 0 {
		printer.Info("No hubs found.\n\nRun 'veil up' to start one.\n")
		return nil
	}

	table := tablewriter.NewWriter(printer.Out())
	table.Header([]string{"SESSION", "STATUS", "PORT", "URL"})
	for _, info := range infos {
		port := "-"
		if info.Port != 0 {
			port = strconv.Itoa(info.Port)
		}
		if err := table.Append([]string{info.Session, string(info.Status), port, info.URL}); err != nil {
			return fmt.Errorf("failed to render hubs: %w", err)
		}
	}
	return table.Render()
}
