package commands

import (
	"encoding/json"
	"fmt"

	"github.com/dyluth/veil/internal/printer"
	"github.com/dyluth/veil/pkg/hue"
	"github.com/spf13/cobra"
)

var (
	classifyJSON bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify <id>...",
	Short: "Show the color bucket of participant IDs",
	Long: `Show the hue bucket (0-36) and hue in degrees that collaboration clients
derive from each ID, with the ID printed in its bucket's color.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(classifyCmd)
}

type classification struct {
	ID     string `json:"id"`
	Bucket int    `json:"bucket"`
	Hue    int    `json:"hue"`
}

func runClassify(cmd *cobra.Command, args []string) error {
	results := make([]classification, 0, len(args))
	for _, id := range args {
		b := hue.Classify(id)
		results = append(results, classification{ID: id, Bucket: int(b), Hue: b.Hue()})
	}

	if classifyJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		printer.Info("%s\n", data)
		return nil
	}

	printer.Info("%-6s %-5s %s\n", "BUCKET", "HUE", "ID")
	for _, r := range results {
		printer.Info("%-6d %-5d ", r.Bucket, r.Hue)
		printer.Bucketed(hue.Bucket(r.Bucket), "%s\n", r.ID)
	}
	return nil
}
