package presence

import "fmt"

// Redis key pattern helpers
//
// Every key and channel is namespaced by session name so several
// collaboration sessions can share one Redis server.
//
// Key pattern: veil:{session}:{entity}
// Channel pattern: veil:{session}:{entity}_events

// PresenceKey returns the Redis hash holding the session's presence entries.
// Pattern: veil:{session}:presence
func PresenceKey(session string) string {
	return fmt.Sprintf("veil:%s:presence", session)
}

// PresenceEventsChannel returns the Pub/Sub channel announcing presence writes.
// Pattern: veil:{session}:presence_events
func PresenceEventsChannel(session string) string {
	return fmt.Sprintf("veil:%s:presence_events", session)
}
