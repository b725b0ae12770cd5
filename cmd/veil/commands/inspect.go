package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dyluth/veil/internal/printer"
	"github.com/dyluth/veil/pkg/hue"
	"github.com/dyluth/veil/pkg/identity"
	"github.com/dyluth/veil/pkg/presence"
	"github.com/dyluth/veil/pkg/pseudonym"
	"github.com/spf13/cobra"
)

var (
	inspectLookup bool
	inspectJSON   bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <pseudonym>",
	Short: "Decode a pseudonym's bucket marker",
	Long: `Show the bucket a pseudonym was minted for, the bucket collaboration
clients derive from it, and whether the two agree.

With --lookup, veil also reads the session: it reports whether the
pseudonym is a stored key, and which participant it stands for in this
process. Pseudonyms are assigned per process, so one shown by another
'veil list' or 'veil watch' is not known here.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectLookup, "lookup", false, "Also look the pseudonym up in the session")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(inspectCmd)
}

type inspection struct {
	Pseudonym  string               `json:"pseudonym"`
	Marker     int                  `json:"marker"`
	Bucket     int                  `json:"bucket"`
	Hue        int                  `json:"hue"`
	Consistent bool                 `json:"consistent"`
	Stored     *bool                `json:"stored,omitempty"`
	Assignment *identity.Assignment `json:"assignment,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p := args[0]
	marker, err := pseudonym.BucketOf(p, cfg.Pseudonym.Prefix)
	if err != nil {
		return printer.Error(
			"not a pseudonym",
			err.Error(),
			[]string{"Pseudonyms start with the configured prefix and a 2-digit bucket, e.g. anon_07..."},
		)
	}
	classified := hue.Classify(p)
	result := inspection{
		Pseudonym:  p,
		Marker:     int(marker),
		Bucket:     int(classified),
		Hue:        classified.Hue(),
		Consistent: marker == classified,
	}

	if inspectLookup {
		ctx := context.Background()
		decision, err := decideActivation(activationAlways, "")
		if err != nil {
			return err
		}
		sess, err := openSession(ctx, decision)
		if err != nil {
			return err
		}
		defer sess.Close()

		coll, _, err := sess.collection()
		if err != nil {
			return err
		}
		stored, a, err := lookupPseudonym(ctx, coll, sess.store, sess.registry, p)
		if err != nil {
			return err
		}
		result.Stored = &stored
		result.Assignment = a
	}

	if inspectJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal inspection: %w", err)
		}
		printer.Info("%s\n", data)
		return nil
	}

	printer.Bucketed(classified, "%s\n", p)
	printer.Info("  marker:  bucket %d\n", result.Marker)
	printer.Info("  shown:   bucket %d (hue %d)\n", result.Bucket, result.Hue)
	if !result.Consistent {
		printer.Warning("marker and shown bucket differ; this key was not minted for its color\n")
	}
	if result.Stored != nil {
		if *result.Stored {
			printer.Info("  stored:  yes, written through the veil\n")
		} else {
			printer.Info("  stored:  no\n")
		}
		if result.Assignment != nil {
			printer.Info("  stands for %s (assigned %s)\n", result.Assignment.Identity, result.Assignment.CreatedAt.Format("15:04:05"))
		} else {
			printer.Info("  not assigned to a participant in this process\n")
		}
	}
	return nil
}

// lookupPseudonym walks coll so every raw participant key gets its
// pseudonym in registry, then reports whether p is a key of backing and which
// assignment it belongs to, if any.
func lookupPseudonym(ctx context.Context, coll, backing presence.Collection, registry *identity.Registry, p string) (bool, *identity.Assignment, error) {
	if err := coll.ForEach(ctx, func(string, any) error { return nil }); err != nil {
		return false, nil, fmt.Errorf("failed to read session: %w", err)
	}

	_, stored, err := backing.Get(ctx, p)
	if err != nil {
		return false, nil, err
	}

	a, err := registry.ReverseLookup(p)
	if errors.Is(err, identity.ErrNotFound) {
		return stored, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return stored, a, nil
}
