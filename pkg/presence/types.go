package presence

import (
	"context"

	"github.com/samber/lo"
)

// Field names recognized on presence records.
const (
	FieldPointer            = "pointer"
	FieldButton             = "button"
	FieldSelectedElementIDs = "selectedElementIds"
	FieldUsername           = "username"
	FieldUserState          = "userState"
	FieldAvatarURL          = "avatarUrl"
)

// PresenceFields is the set of fields that mark a value as a presence record.
var PresenceFields = []string{
	FieldPointer,
	FieldButton,
	FieldSelectedElementIDs,
	FieldUsername,
	FieldUserState,
	FieldAvatarURL,
}

// Record is a participant's presence payload.
type Record map[string]any

// Has reports whether the field is present, regardless of its value.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// HasAny reports whether at least one of fields is present.
func (r Record) HasAny(fields ...string) bool {
	return lo.SomeBy(fields, r.Has)
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// AsRecord returns v as a Record if it is a structured value.
// Anything else (strings, numbers, slices, nil) is not a record.
func AsRecord(v any) (Record, bool) {
	switch rec := v.(type) {
	case Record:
		return rec, rec != nil
	case map[string]any:
		return Record(rec), rec != nil
	default:
		return nil, false
	}
}

// Entry is a single key/value pair from a Collection.
type Entry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Collection is a mutable, iterable key-value collection of presence values.
// Values are usually Records but a Collection must accept any value, since
// unrelated entries may share the same collection.
type Collection interface {
	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key string, value any) error

	// Get returns the value under key. ok is false if the key is absent.
	Get(ctx context.Context, key string) (value any, ok bool, err error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Len returns the number of entries.
	Len(ctx context.Context) (int, error)

	// ForEach calls fn for every entry. A non-nil error from fn stops the
	// traversal and is returned.
	ForEach(ctx context.Context, fn func(key string, value any) error) error
}

// Entries collects every entry of c into a slice, in traversal order.
func Entries(ctx context.Context, c Collection) ([]Entry, error) {
	var out []Entry
	err := c.ForEach(ctx, func(key string, value any) error {
		out = append(out, Entry{Key: key, Value: value})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
