// Package watch streams presence changes to a terminal or a JSON-lines sink.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/veil/internal/printer"
	"github.com/dyluth/veil/pkg/presence"
	log "github.com/sirupsen/logrus"
)

// OutputFormat selects how events are rendered.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatJSON    OutputFormat = "json"
)

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatDefault, OutputFormatJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: default, json)", s)
	}
}

// Presenter decides the key shown for each event.
type Presenter interface {
	Present(key string, value any) (string, error)
	PresentRemoval(key string) (string, error)
}

// Source is a stream of presence events.
type Source interface {
	Events() <-chan *presence.Event
	Errors() <-chan error
}

// StreamPresence renders events from src until it closes or ctx is done.
// Decode errors from src are logged and skipped; presenter errors end the stream.
func StreamPresence(ctx context.Context, src Source, presenter Presenter, format OutputFormat, w io.Writer) error {
	events := src.Events()
	errs := src.Errors()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.WithError(err).Warn("skipping presence event")

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := render(event, presenter, format, w); err != nil {
				return err
			}
		}
	}
}

func render(event *presence.Event, presenter Presenter, format OutputFormat, w io.Writer) error {
	var (
		key string
		err error
	)
	if event.Deleted {
		key, err = presenter.PresentRemoval(event.Key)
	} else {
		key, err = presenter.Present(event.Key, event.Value)
	}
	if err != nil {
		return err
	}

	switch format {
	case OutputFormatJSON:
		line, err := json.Marshal(presence.Event{Key: key, Value: event.Value, Deleted: event.Deleted})
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		fmt.Fprintf(w, "%s\n", line)
	default:
		if event.Deleted {
			printer.RemovedTo(w, key)
		} else {
			printer.EntryTo(w, key, event.Value)
		}
	}
	return nil
}

// PollForEntry polls c every 200ms until key is present and returns its value.
func PollForEntry(ctx context.Context, c presence.Collection, key string, timeout time.Duration) (any, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for presence entry after %v", timeout)

		case <-ticker.C:
			value, ok, err := c.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("failed to query presence entry: %w", err)
			}
			if ok {
				return value, nil
			}
		}
	}
}
