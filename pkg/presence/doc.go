// Package presence defines the live, shared key-value collection that carries
// per-participant presence data, and two implementations of it.
//
// # Overview
//
// Every participant in a collaboration session broadcasts a presence record
// (pointer position, button state, selected elements, username and so on)
// under a key that identifies them. Renderers and other subsystems enumerate
// the collection to draw remote cursors and selections.
//
// Records are structural bags: no closed field set is assumed and callers
// test for field presence rather than relying on a schema.
//
// # Collections
//
// MemoryStore keeps entries in process memory in insertion order.
//
// RedisStore keeps entries in a Redis hash shared by every process in the
// session and publishes each write on a Pub/Sub channel:
//
//	Presence hash:   veil:{session}:presence
//	Presence events: veil:{session}:presence_events
//
// # Usage Example
//
//	store, err := presence.NewRedisStore(&redis.Options{Addr: "localhost:6379"}, "design-review")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.Set(ctx, socketID, presence.Record{
//		presence.FieldPointer:  map[string]any{"x": 10, "y": 20},
//		presence.FieldUsername: "alice",
//	})
package presence
