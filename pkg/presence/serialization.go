package presence

import (
	"encoding/json"
	"fmt"
)

// Values are stored as JSON documents in individual hash fields. Objects
// decode back into Records so that field-presence checks keep working on
// entries read from Redis.

// EncodeValue converts a value to its stored form.
func EncodeValue(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal presence value: %w", err)
	}
	return string(data), nil
}

// DecodeValue converts a stored value back. JSON objects become Records.
func DecodeValue(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence value: %w", err)
	}
	if m, ok := v.(map[string]any); ok {
		return Record(m), nil
	}
	return v, nil
}

// Event announces a change to one presence entry.
type Event struct {
	Key     string `json:"key"`
	Value   any    `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// UnmarshalJSON decodes an Event, turning an object value into a Record.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key     string          `json:"key"`
		Value   json.RawMessage `json:"value"`
		Deleted bool            `json:"deleted"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Key = raw.Key
	e.Deleted = raw.Deleted
	e.Value = nil
	if len(raw.Value) > 0 {
		v, err := DecodeValue(string(raw.Value))
		if err != nil {
			return err
		}
		e.Value = v
	}
	return nil
}
