package commands

import (
	"errors"
	"fmt"

	"github.com/dyluth/veil/internal/printer"
	"github.com/dyluth/veil/pkg/hue"
	"github.com/dyluth/veil/pkg/pseudonym"
	"github.com/spf13/cobra"
)

var (
	mintBucket       int
	mintCount        int
	mintSuffixLength int
	mintPrefix       string
	mintMaxAttempts  int
)

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Generate pseudonyms that land in a color bucket",
	Long: `Generate distinct pseudonyms whose hue bucket is --bucket.

Flags not given fall back to the pseudonym section of veil.yml.`,
	Args: cobra.NoArgs,
	RunE: runMint,
}

func init() {
	mintCmd.Flags().IntVarP(&mintBucket, "bucket", "b", 0, "Target hue bucket (0-36)")
	mintCmd.Flags().IntVarP(&mintCount, "count", "n", 1, "Number of pseudonyms to generate")
	mintCmd.Flags().IntVar(&mintSuffixLength, "suffix-length", pseudonym.DefaultSuffixLength, "Random suffix length (>= 3)")
	mintCmd.Flags().StringVar(&mintPrefix, "prefix", pseudonym.DefaultPrefix, "Pseudonym prefix")
	mintCmd.Flags().IntVar(&mintMaxAttempts, "max-attempts", pseudonym.DefaultMaxAttempts, "Candidates tried per pseudonym")
	rootCmd.AddCommand(mintCmd)
}

func runMint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if !flags.Changed("bucket") {
		mintBucket = *cfg.Pseudonym.TargetBucket
	}
	if !flags.Changed("suffix-length") {
		mintSuffixLength = *cfg.Pseudonym.SuffixLength
	}
	if !flags.Changed("prefix") {
		mintPrefix = cfg.Pseudonym.Prefix
	}
	if !flags.Changed("max-attempts") {
		mintMaxAttempts = *cfg.Pseudonym.MaxAttempts
	}
	if mintCount < 1 {
		return fmt.Errorf("--count must be >= 1, got %d", mintCount)
	}

	gen := pseudonym.NewGenerator(pseudonym.WithMaxAttempts(mintMaxAttempts))
	target := hue.Bucket(mintBucket)
	minted := pseudonym.MapSet{}

	for i := 0; i < mintCount; i++ {
		p, err := gen.Generate(target, minted, mintSuffixLength, mintPrefix)
		if err != nil {
			if errors.Is(err, pseudonym.ErrGenerationExhausted) {
				return printer.Error(
					"pseudonym search exhausted",
					err.Error(),
					[]string{"Use a longer --suffix-length or raise --max-attempts"},
				)
			}
			return err
		}
		minted.Add(p)
		printer.Bucketed(target, "%s\n", p)
	}
	return nil
}
