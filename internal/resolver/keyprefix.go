// Package resolver resolves a shortened presence key to the stored key.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dyluth/veil/pkg/presence"
)

// MinPrefixLength is the minimum required length for a key prefix.
const MinPrefixLength = 6

// ResolveKey resolves a key prefix to the one stored key it starts.
// An exact match wins even if longer keys share the prefix.
func ResolveKey(ctx context.Context, c presence.Collection, prefix string) (string, error) {
	if len(prefix) < MinPrefixLength {
		return "", fmt.Errorf("key prefix must be at least %d characters (got %d)", MinPrefixLength, len(prefix))
	}

	var matches []string
	err := c.ForEach(ctx, func(key string, _ any) error {
		if key == prefix {
			matches = []string{key}
			return errExact
		}
		if strings.HasPrefix(key, prefix) {
			matches = append(matches, key)
		}
		return nil
	})
	if errors.Is(err, errExact) {
		return prefix, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to search presence keys: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Prefix: prefix}
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", &AmbiguousError{Prefix: prefix, Matches: matches}
	}
}

// errExact stops the scan once the prefix is itself a stored key.
var errExact = errors.New("exact match")

// NotFoundError indicates no stored key starts with the prefix.
type NotFoundError struct {
	Prefix string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no presence keys found matching '%s'", e.Prefix)
}

// AmbiguousError indicates several stored keys start with the prefix.
type AmbiguousError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous key prefix '%s' matches %d keys", e.Prefix, len(e.Matches))
}

// FormatAmbiguousError lists the matching keys (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Key prefix '%s' matches %d keys:\n", err.Prefix, len(err.Matches))

	displayCount := min(len(err.Matches), 10)
	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix to identify one key."
	return msg
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
