package hub

import (
	"fmt"
	"regexp"
)

// MaxSessionLength is the maximum length for a hub session name
const MaxSessionLength = 63

// SessionPattern matches session names usable in container names.
// Room IDs from collaboration links are mixed-case alphanumeric, so case is kept.
var SessionPattern = regexp.MustCompile(`^[a-zA-Z0-9]([-_.a-zA-Z0-9]*[a-zA-Z0-9])?$`)

// ValidateSession checks that a session name can name a hub container.
func ValidateSession(session string) error {
	if session == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	if len(session) > MaxSessionLength {
		return fmt.Errorf("session name too long: %d characters (max: %d)", len(session), MaxSessionLength)
	}

	if !SessionPattern.MatchString(session) {
		return fmt.Errorf("invalid session name '%s': must be alphanumeric with '-', '_' or '.' (not at start/end)", session)
	}

	return nil
}
