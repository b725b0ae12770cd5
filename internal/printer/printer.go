package printer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dyluth/veil/pkg/hue"
	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr

	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)

	// bucketPalette approximates the hue wheel with the terminal's 12 chromatic colors.
	bucketPalette = []color.Attribute{
		color.FgRed, color.FgHiRed, color.FgYellow, color.FgHiYellow,
		color.FgGreen, color.FgHiGreen, color.FgCyan, color.FgHiCyan,
		color.FgBlue, color.FgHiBlue, color.FgMagenta, color.FgHiMagenta,
	}
)

// SetOutput redirects standard and error output. Used by command tests.
func SetOutput(stdout, stderr io.Writer) {
	out = stdout
	errOut = stderr
}

// Out returns the writer standard output goes to.
func Out() io.Writer {
	return out
}

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(out, msg)
}

// Info prints an informational message in the default color
func Info(format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}

// Warning prints a warning message in yellow with a warning emoji prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(errOut, msg)
}

// Step prints a step message with emphasis (used in multi-step operations)
func Step(format string, a ...any) {
	cyan.Fprintf(out, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints a title, explanation and suggestions to stderr and returns
// an error carrying only the title, so Cobra does not print it twice.
func Error(title string, explanation string, suggestions []string) error {
	return ErrorWithContext(title, explanation, nil, suggestions)
}

// ErrorWithContext is Error with a block of key/value details, printed in key order.
func ErrorWithContext(title string, explanation string, context map[string]string, suggestions []string) error {
	red.Fprintf(errOut, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(errOut, "%s\n", explanation)
	}

	if len(context) > 0 {
		keys := make([]string, 0, len(context))
		for k := range context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(errOut, "\n")
		for _, k := range keys {
			fmt.Fprintf(errOut, "  %s: %s\n", k, context[k])
		}
	}

	switch len(suggestions) {
	case 0:
	case 1:
		fmt.Fprintf(errOut, "\n%s\n", suggestions[0])
	default:
		fmt.Fprintf(errOut, "\nEither:\n")
		for i, suggestion := range suggestions {
			fmt.Fprintf(errOut, "  %d. %s\n", i+1, suggestion)
		}
	}

	return fmt.Errorf("%s", title)
}

// BucketColor returns the terminal color used for a hue bucket.
func BucketColor(b hue.Bucket) *color.Color {
	if !b.Valid() {
		return faint
	}
	return color.New(bucketPalette[int(b)*len(bucketPalette)/hue.BucketCount])
}

// Bucketed prints a message in the color of bucket b.
func Bucketed(b hue.Bucket, format string, a ...any) {
	BucketColor(b).Fprintf(out, format, a...)
}

// Entry prints one presence entry: the key colored by its bucket, then the
// value as compact JSON.
func Entry(key string, value any) {
	EntryTo(out, key, value)
}

// EntryTo is Entry writing to w.
func EntryTo(w io.Writer, key string, value any) {
	body, err := json.Marshal(value)
	if err != nil {
		body = []byte(fmt.Sprintf("%v", value))
	}
	BucketColor(hue.Classify(key)).Fprintf(w, "%s", key)
	fmt.Fprintf(w, "  %s\n", body)
}

// Removed prints a deleted presence entry.
func Removed(key string) {
	RemovedTo(out, key)
}

// RemovedTo is Removed writing to w.
func RemovedTo(w io.Writer, key string) {
	BucketColor(hue.Classify(key)).Fprintf(w, "%s", key)
	faint.Fprintf(w, "  (left)\n")
}
