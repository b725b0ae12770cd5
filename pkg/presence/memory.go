package presence

import (
	"context"
	"sync"
)

var _ Collection = (*MemoryStore)(nil)

// MemoryStore is an in-process Collection that preserves insertion order.
// Overwriting an existing key keeps its original position. It is safe for
// concurrent use; ForEach iterates over a snapshot so fn may write back.
type MemoryStore struct {
	mu     sync.RWMutex
	keys   []string
	values map[string]any
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]any)}
}

// Set implements Collection.
func (m *MemoryStore) Set(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return nil
}

// Get implements Collection.
func (m *MemoryStore) Get(_ context.Context, key string) (any, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	return v, ok, nil
}

// Delete implements Collection.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.values[key]; !exists {
		return nil
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return nil
}

// Len implements Collection.
func (m *MemoryStore) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys), nil
}

// Keys returns the stored keys in insertion order.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.keys...)
}

// ForEach implements Collection.
func (m *MemoryStore) ForEach(ctx context.Context, fn func(key string, value any) error) error {
	m.mu.RLock()
	snapshot := make([]Entry, len(m.keys))
	for i, k := range m.keys {
		snapshot[i] = Entry{Key: k, Value: m.values[k]}
	}
	m.mu.RUnlock()

	for _, e := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}
