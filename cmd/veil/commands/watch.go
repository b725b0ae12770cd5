package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"unicode/utf8"

	"github.com/dyluth/veil/internal/printer"
	"github.com/dyluth/veil/internal/watch"
	"github.com/dyluth/veil/pkg/redact"
	"github.com/spf13/cobra"
)

var (
	watchActivation   string
	watchURL          string
	watchOutputFormat string
	watchFallback     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream presence changes as other participants see them",
	Long: `Stream presence updates and departures for the session in real time.

While the veil is active every participant key is shown as its pseudonym.
A participant keeps the same pseudonym for as long as watch runs.

Output Formats:
  default - Bucket-colored keys with compact JSON values
  json    - Line-delimited JSON for programmatic processing

A key that cannot be given a pseudonym stops the stream. With --fallback-raw
it is shown as stored, with a warning on stderr.

Examples:
  # Watch the configured session
  veil watch

  # Watch the room a collaboration link points at
  veil watch --activation link --url 'https://draw.example/#room=aB3kP9xQ2mN7vL1cR5tY,key'

  # Export events as JSON
  veil watch --output=json > presence.jsonl`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchActivation, "activation", activationAlways, "When to apply the veil (always, link, never)")
	watchCmd.Flags().StringVar(&watchURL, "url", "", "Session URL checked by --activation link")
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().BoolVar(&watchFallback, "fallback-raw", false, "Show keys that cannot be pseudonymized as stored instead of failing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := watch.ParseOutputFormat(watchOutputFormat)
	if err != nil {
		return printer.Error("invalid output format", err.Error(), []string{"Valid formats: default, json"})
	}

	decision, err := decideActivation(watchActivation, watchURL)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(ctx, decision)
	if err != nil {
		return err
	}
	defer sess.Close()

	_, ic, err := sess.collection()
	if err != nil {
		return err
	}

	sub, err := sess.store.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	printer.Step("Watching presence in session '%s'...\n", sess.store.Session())
	return watch.StreamPresence(ctx, sub, newPresenter(ic, sess.registry, watchFallback), format, printer.Out())
}

// participants is the registry view removals are presented with.
type participants interface {
	Lookup(identity string) (string, bool)
	Resolve(identity string) (string, error)
}

// presenter shows event keys the way the interceptor presents entries.
// A nil interceptor shows raw keys.
type presenter struct {
	ic          *redact.Interceptor
	registry    participants
	fallbackRaw bool
}

func newPresenter(ic *redact.Interceptor, registry participants, fallbackRaw bool) *presenter {
	return &presenter{ic: ic, registry: registry, fallbackRaw: fallbackRaw}
}

func (p *presenter) Present(key string, value any) (string, error) {
	if p.ic == nil {
		return key, nil
	}
	shown, err := p.ic.Present(key, value)
	return p.orRaw(key, shown, err)
}

// PresentRemoval carries no value to test for presence fields, so a known
// participant is shown by its pseudonym and any other key long enough to be a
// participant is pseudonymized.
func (p *presenter) PresentRemoval(key string) (string, error) {
	if p.ic == nil {
		return key, nil
	}
	policy := p.ic.Policy()
	if !policy.Pseudonymize {
		return key, nil
	}
	if pseudonym, ok := p.registry.Lookup(key); ok {
		return pseudonym, nil
	}
	if utf8.RuneCountInString(key) < policy.IdentityLength() {
		return key, nil
	}
	shown, err := p.registry.Resolve(key)
	return p.orRaw(key, shown, err)
}

func (p *presenter) orRaw(key, shown string, err error) (string, error) {
	if err == nil || !p.fallbackRaw {
		return shown, err
	}
	warnRawKey(err)
	return key, nil
}
