package presence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, "k", Record{FieldUsername: "bob"}))

		v, ok, err := store.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, Record{FieldUsername: "bob"}, v)

		_, ok, err = store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("preserves insertion order on overwrite", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, "first", 1))
		require.NoError(t, store.Set(ctx, "second", 2))
		require.NoError(t, store.Set(ctx, "first", 3))

		assert.Equal(t, []string{"first", "second"}, store.Keys())
		v, _, _ := store.Get(ctx, "first")
		assert.Equal(t, 3, v)
	})

	t.Run("delete", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, "a", 1))
		require.NoError(t, store.Set(ctx, "b", 2))
		require.NoError(t, store.Delete(ctx, "a"))
		require.NoError(t, store.Delete(ctx, "never-there"))

		n, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"b"}, store.Keys())
	})

	t.Run("ForEach stops on callback error", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, "a", 1))
		require.NoError(t, store.Set(ctx, "b", 2))

		stop := errors.New("stop")
		visited := 0
		err := store.ForEach(ctx, func(key string, value any) error {
			visited++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, visited)
	})

	t.Run("ForEach honours cancelled context", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, "a", 1))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := store.ForEach(cancelled, func(string, any) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("ForEach callback may write back", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, "a", 1))

		err := store.ForEach(ctx, func(key string, value any) error {
			return store.Set(ctx, key+"-copy", value)
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "a-copy"}, store.Keys())
	})
}
