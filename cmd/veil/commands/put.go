package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/veil/internal/activation"
	"github.com/dyluth/veil/internal/printer"
	"github.com/dyluth/veil/pkg/presence"
	"github.com/spf13/cobra"
)

var (
	putX         float64
	putY         float64
	putButton    string
	putUsername  string
	putSelection []string
	putState     string
	putRaw       bool
	putHold      bool
	putInterval  time.Duration
)

var putCmd = &cobra.Command{
	Use:   "put <participant-id>",
	Short: "Publish a participant's presence through the veil",
	Long: `Publish one presence record for a participant.

The write goes through the redaction interceptor: the participant ID is
replaced with a pseudonym and the configured sensitive fields are stripped
before anything reaches the shared store. --raw writes the record untouched.

Pseudonyms live as long as the process. With --hold the record is
republished every --interval under the same pseudonym and removed on exit.

Examples:
  # Publish a cursor position
  veil put 7f3c9a2e-41b8-4d0e-9c55-0a1b2c3d4e5f --x 120 --y 48

  # Stay present until interrupted
  veil put 7f3c9a2e-41b8-4d0e-9c55-0a1b2c3d4e5f --username ada --hold`,
	Args: cobra.ExactArgs(1),
	RunE: runPut,
}

func init() {
	putCmd.Flags().Float64Var(&putX, "x", 0, "Pointer x coordinate")
	putCmd.Flags().Float64Var(&putY, "y", 0, "Pointer y coordinate")
	putCmd.Flags().StringVar(&putButton, "button", "up", "Pointer button state (up or down)")
	putCmd.Flags().StringVar(&putUsername, "username", "", "Display name")
	putCmd.Flags().StringSliceVar(&putSelection, "select", nil, "Selected element IDs")
	putCmd.Flags().StringVar(&putState, "state", "active", "User state (active, away, idle)")
	putCmd.Flags().BoolVar(&putRaw, "raw", false, "Bypass the veil and write the record untouched")
	putCmd.Flags().BoolVar(&putHold, "hold", false, "Keep republishing until interrupted, then remove the record")
	putCmd.Flags().DurationVar(&putInterval, "interval", 5*time.Second, "Republish interval for --hold")
	rootCmd.AddCommand(putCmd)
}

// buildRecord assembles a presence record from the put flags. Clients always
// send a pointer, which is also what marks a write for pseudonymization.
func buildRecord() presence.Record {
	rec := presence.Record{
		presence.FieldPointer:   map[string]any{"x": putX, "y": putY},
		presence.FieldButton:    putButton,
		presence.FieldUserState: putState,
	}
	if putUsername != "" {
		rec[presence.FieldUsername] = putUsername
	}
	if len(putSelection) > 0 {
		selected := make(map[string]any, len(putSelection))
		for _, id := range putSelection {
			selected[id] = true
		}
		rec[presence.FieldSelectedElementIDs] = selected
	}
	return rec
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	participant := args[0]

	decision := activation.Decision{Active: !putRaw, Reason: activation.ReasonForced}
	if putRaw {
		decision.Reason = activation.ReasonInactive
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

	key, err := publish(ctx, sess, coll, participant, buildRecord())
	if err != nil {
		return err
	}
	printer.Success("Published presence for %s\n", key)

	if !putHold {
		return nil
	}
	return hold(ctx, sess, coll, participant, key)
}

// publish writes rec under participant and returns the key it was stored under.
func publish(ctx context.Context, sess *session, coll presence.Collection, participant string, rec presence.Record) (string, error) {
	if err := coll.Set(ctx, participant, rec); err != nil {
		return "", printer.Error(
			"failed to publish presence",
			err.Error(),
			[]string{"Widen the search with a longer pseudonym.suffix_length or a higher pseudonym.max_attempts in veil.yml"},
		)
	}
	return storedKey(sess, participant), nil
}

// storedKey returns the key a write for participant lands under.
func storedKey(sess *session, participant string) string {
	if !sess.active {
		return participant
	}
	if p, ok := sess.registry.Lookup(participant); ok {
		return p
	}
	return participant
}

// hold republishes until interrupted. Writes strip fields from the record in
// place, so each tick builds a fresh one.
func hold(ctx context.Context, sess *session, coll presence.Collection, participant, key string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(putInterval)
	defer ticker.Stop()

	printer.Info("Holding presence, press Ctrl-C to leave\n")
	for {
		select {
		case <-ctx.Done():
			// ctx is cancelled; use a fresh one for cleanup
			if err := sess.store.Delete(context.Background(), key); err != nil {
				return fmt.Errorf("failed to remove presence: %w", err)
			}
			printer.Success("Removed presence for %s\n", key)
			return nil
		case <-ticker.C:
			if _, err := publish(ctx, sess, coll, participant, buildRecord()); err != nil {
				return err
			}
		}
	}
}
