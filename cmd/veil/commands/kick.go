package commands

import (
	"context"
	"fmt"

	"github.com/dyluth/veil/internal/activation"
	"github.com/dyluth/veil/internal/printer"
	"github.com/dyluth/veil/internal/resolver"
	"github.com/spf13/cobra"
)

var kickCmd = &cobra.Command{
	Use:   "kick <key-prefix>",
	Short: "Remove a stale presence entry",
	Long: `Remove one presence entry from the shared store, for example one left
behind by a 'veil put --hold' that did not exit cleanly.

The argument is matched against stored keys (pseudonyms for veiled
participants) and may be any unique prefix of at least 6 characters.`,
	Args: cobra.ExactArgs(1),
	RunE: runKick,
}

func init() {
	rootCmd.AddCommand(kickCmd)
}

func runKick(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sess, err := openSession(ctx, activation.Decision{Reason: activation.ReasonInactive})
	if err != nil {
		return err
	}
	defer sess.Close()

	key, err := resolver.ResolveKey(ctx, sess.store, args[0])
	if err != nil {
		if ambiguous, ok := err.(*resolver.AmbiguousError); ok {
			return printer.Error("ambiguous key prefix", resolver.FormatAmbiguousError(ambiguous), nil)
		}
		if resolver.IsNotFoundError(err) {
			return printer.Error(
				"presence entry not found",
				err.Error(),
				[]string{fmt.Sprintf("List stored keys:\n  veil list --raw --session %s", sess.store.Session())},
			)
		}
		return err
	}

	if err := sess.store.Delete(ctx, key); err != nil {
		return err
	}
	printer.Success("Removed %s\n", key)
	return nil
}
