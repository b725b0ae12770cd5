// Package activation decides whether the redaction layer is switched on.
//
// The layer is all-or-nothing: either every enumeration and write goes
// through the interceptor or none does. It is switched on explicitly, or
// when the session URL points at a live collaboration room, which the host
// application encodes in the fragment as #room=<roomID>,<roomKey>.
package activation

import (
	"fmt"
	"net/url"
	"strings"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonForced   Reason = "forced"
	ReasonRoomLink Reason = "room_link"
	ReasonInactive Reason = "inactive"
)

// Decision is the outcome of Decide.
type Decision struct {
	Active bool
	Reason Reason
	RoomID string // set when Reason is ReasonRoomLink
}

// Decide returns an active Decision if force is set or rawURL carries a
// collaboration room fragment. An empty rawURL is not an error.
func Decide(rawURL string, force bool) (Decision, error) {
	if force {
		return Decision{Active: true, Reason: ReasonForced}, nil
	}
	if rawURL == "" {
		return Decision{Reason: ReasonInactive}, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Decision{}, fmt.Errorf("invalid session URL: %w", err)
	}

	roomID, ok := RoomFromFragment(u.Fragment)
	if !ok {
		return Decision{Reason: ReasonInactive}, nil
	}
	return Decision{Active: true, Reason: ReasonRoomLink, RoomID: roomID}, nil
}

// RoomFromFragment extracts the room ID from a "room=<id>,<key>" fragment.
// The key part is never returned.
func RoomFromFragment(fragment string) (string, bool) {
	value, found := strings.CutPrefix(fragment, "room=")
	if !found {
		return "", false
	}
	roomID, _, _ := strings.Cut(value, ",")
	if roomID == "" {
		return "", false
	}
	return roomID, true
}
