package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a store connected to a miniredis instance
func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := NewRedisStore(&redis.Options{Addr: mr.Addr()}, "test-session")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestNewRedisStore(t *testing.T) {
	t.Run("creates store successfully", func(t *testing.T) {
		store, _ := setupTestStore(t)
		assert.Equal(t, "test-session", store.Session())
		assert.NoError(t, store.Ping(context.Background()))
	})

	t.Run("rejects empty session name", func(t *testing.T) {
		_, err := NewRedisStore(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "session name cannot be empty")
	})
}

func TestRedisStore_SetGet(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	rec := Record{
		FieldPointer:            map[string]any{"x": 1, "y": 2},
		FieldSelectedElementIDs: map[string]any{"e1": true},
	}
	require.NoError(t, store.Set(ctx, "participant-0000000000000001", rec))

	// stored as JSON in the session hash
	raw := mr.HGet(PresenceKey("test-session"), "participant-0000000000000001")
	assert.JSONEq(t, `{"pointer":{"x":1,"y":2},"selectedElementIds":{"e1":true}}`, raw)

	v, ok, err := store.Get(ctx, "participant-0000000000000001")
	require.NoError(t, err)
	require.True(t, ok)
	got, isRecord := v.(Record)
	require.True(t, isRecord)
	assert.True(t, got.Has(FieldPointer))
	assert.Equal(t, map[string]any{"e1": true}, got[FieldSelectedElementIDs])

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_NonRecordValues(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "scene-version", 42))
	v, ok, err := store.Get(ctx, "scene-version")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)
}

func TestRedisStore_DeleteAndLen(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", Record{FieldUsername: "a"}))
	require.NoError(t, store.Set(ctx, "b", Record{FieldUsername: "b"}))

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))

	n, err = store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisStore_ForEach(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "zeta", Record{FieldUsername: "z"}))
	require.NoError(t, store.Set(ctx, "alpha", Record{FieldUsername: "a"}))

	var keys []string
	err := store.ForEach(ctx, func(key string, value any) error {
		keys = append(keys, key)
		_, ok := AsRecord(value)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, keys)

	t.Run("reports corrupt entries", func(t *testing.T) {
		mr.HSet(PresenceKey("test-session"), "broken", "{not json")
		err := store.ForEach(ctx, func(string, any) error { return nil })
		assert.Error(t, err)
		assert.Contains(t, err.Error(), `entry "broken"`)
	})
}

func TestRedisStore_Subscribe(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, store.Set(ctx, "participant-0000000000000001", Record{FieldUsername: "alice"}))
	require.NoError(t, store.Delete(ctx, "participant-0000000000000001"))

	select {
	case e := <-sub.Events():
		assert.Equal(t, "participant-0000000000000001", e.Key)
		assert.False(t, e.Deleted)
		rec, ok := AsRecord(e.Value)
		require.True(t, ok)
		assert.Equal(t, "alice", rec[FieldUsername])
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for set event")
	}

	select {
	case e := <-sub.Events():
		assert.Equal(t, "participant-0000000000000001", e.Key)
		assert.True(t, e.Deleted)
		assert.Nil(t, e.Value)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for delete event")
	}

	t.Run("close is idempotent", func(t *testing.T) {
		assert.NoError(t, sub.Close())
		assert.NoError(t, sub.Close())
	})
}

func TestRedisStore_SubscribeReportsBadPayloads(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	sub, err := store.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	mr.Publish(PresenceEventsChannel("test-session"), "not json")

	select {
	case err := <-sub.Errors():
		assert.Contains(t, err.Error(), "failed to unmarshal presence event")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for subscription error")
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(redis.Nil))
	assert.False(t, IsNotFound(nil))
}
