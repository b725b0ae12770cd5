package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dyluth/veil/internal/filter"
	"github.com/dyluth/veil/internal/printer"
	"github.com/dyluth/veil/pkg/hue"
	"github.com/dyluth/veil/pkg/presence"
	"github.com/dyluth/veil/pkg/redact"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	listActivation string
	listURL        string
	listRaw        bool
	listJSON       bool
	listMatch      string
	listBucket     int
	listFields     []string
	listFallback   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the session's presence as other participants see it",
	Long: `Enumerate the shared presence store.

When the veil is active, participant keys are shown as pseudonyms. Keys that
are too short or whose values carry no presence fields are shown as stored.
Values are never changed by listing.

--activation decides whether the veil is active:
  always  always active (default)
  link    active only if --url is a collaboration room link (#room=<id>,<key>);
          the room ID then names the session unless --session is given
  never   show raw keys (same as --raw)

Filters apply to keys as shown:
  --match   glob pattern on the key
  --bucket  hue bucket of the key (0-36)
  --field   value must carry this field (repeatable)

A key that cannot be given a pseudonym aborts the listing. With
--fallback-raw it is shown as stored, with a warning on stderr.

Use --json for machine-readable output.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listActivation, "activation", activationAlways, "When to apply the veil (always, link, never)")
	listCmd.Flags().StringVar(&listURL, "url", "", "Session URL checked by --activation link")
	listCmd.Flags().BoolVar(&listRaw, "raw", false, "Show raw keys (same as --activation never)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listMatch, "match", "", "Only keys matching this glob")
	listCmd.Flags().IntVar(&listBucket, "bucket", 0, "Only keys in this hue bucket")
	listCmd.Flags().StringSliceVar(&listFields, "field", nil, "Only values carrying this field")
	listCmd.Flags().BoolVar(&listFallback, "fallback-raw", false, "Show keys that cannot be pseudonymized as stored instead of failing")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	mode := listActivation
	if listRaw {
		mode = activationNever
	}
	decision, err := decideActivation(mode, listURL)
	if err != nil {
		return err
	}

	criteria := filter.Criteria{KeyGlob: listMatch, Fields: listFields}
	if cmd.Flags().Changed("bucket") {
		b := hue.Bucket(listBucket)
		if err := b.Validate(); err != nil {
			return fmt.Errorf("invalid --bucket: %w", err)
		}
		criteria.Bucket = &b
	}

	sess, err := openSession(ctx, decision)
	if err != nil {
		return err
	}
	defer sess.Close()

	coll, ic, err := sess.collection()
	if err != nil {
		return err
	}
	if ic != nil && listFallback {
		coll = rawFallback{ic}
	}

	entries, err := collect(ctx, coll, &criteria)
	if err != nil {
		return printer.Error(
			"failed to list presence",
			err.Error(),
			[]string{
				"Raise pseudonym.max_attempts or pseudonym.suffix_length in veil.yml",
				"Show unresolvable keys as stored:\n  veil list --fallback-raw",
			},
		)
	}

	if listJSON {
		return outputEntriesJSON(entries)
	}

	if len(entries) == 0 {
		if criteria.HasFilters() {
			printer.Info("No presence in session '%s' matches the filters.\n", sess.store.Session())
		} else {
			printer.Info("No presence in session '%s'.\n", sess.store.Session())
		}
		return nil
	}
	for _, e := range entries {
		printer.Entry(e.Key, e.Value)
	}
	return nil
}

// collect traverses coll, keeping the entries whose presented key and value
// match criteria.
func collect(ctx context.Context, coll presence.Collection, criteria *filter.Criteria) ([]presence.Entry, error) {
	var entries []presence.Entry
	err := coll.ForEach(ctx, func(key string, value any) error {
		if criteria.Matches(key, value) {
			entries = append(entries, presence.Entry{Key: key, Value: value})
		}
		return nil
	})
	return entries, err
}

// rawFallback enumerates like the interceptor, but a key that cannot be
// pseudonymized is shown as stored instead of aborting the traversal.
type rawFallback struct {
	*redact.Interceptor
}

func (f rawFallback) ForEach(ctx context.Context, fn func(key string, value any) error) error {
	return f.Unwrap().ForEach(ctx, func(key string, value any) error {
		shown, err := f.Present(key, value)
		if err != nil {
			warnRawKey(err)
			shown = key
		}
		return fn(shown, value)
	})
}

func (f rawFallback) Entries(ctx context.Context) ([]presence.Entry, error) {
	if !f.Policy().InterceptEntries {
		return presence.Entries(ctx, f.Unwrap())
	}
	return presence.Entries(ctx, f)
}

func warnRawKey(err error) {
	log.WithError(err).Debug("presence key shown as stored")
	printer.Warning("showing a presence key as stored: %v\n", err)
}

func outputEntriesJSON(entries []presence.Entry) error {
	if entries == nil {
		entries = []presence.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}
	printer.Info("%s\n", data)
	return nil
}
