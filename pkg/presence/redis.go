package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

var _ Collection = (*RedisStore)(nil)

// RedisStore is a Collection backed by a Redis hash shared by every process
// in a session. Writes and deletes are announced on the session's presence
// events channel. The store is safe for concurrent use.
type RedisStore struct {
	rdb     *redis.Client
	session string
}

// NewRedisStore creates a store for the given session.
// Returns an error if session is empty.
func NewRedisStore(redisOpts *redis.Options, session string) (*RedisStore, error) {
	if session == "" {
		return nil, fmt.Errorf("session name cannot be empty")
	}

	return &RedisStore{
		rdb:     redis.NewClient(redisOpts),
		session: session,
	}, nil
}

// Session returns the session name the store is scoped to.
func (s *RedisStore) Session() string {
	return s.session
}

// Close closes the Redis connection. Implements io.Closer.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Set implements Collection. The value is JSON-encoded into the hash field
// named by key and an Event is published after the write succeeds.
func (s *RedisStore) Set(ctx context.Context, key string, value any) error {
	encoded, err := EncodeValue(value)
	if err != nil {
		return err
	}

	if err := s.rdb.HSet(ctx, PresenceKey(s.session), key, encoded).Err(); err != nil {
		return fmt.Errorf("failed to write presence to Redis: %w", err)
	}

	return s.publish(ctx, &Event{Key: key, Value: value})
}

// Get implements Collection.
func (s *RedisStore) Get(ctx context.Context, key string) (any, bool, error) {
	raw, err := s.rdb.HGet(ctx, PresenceKey(s.session), key).Result()
	if err != nil {
		if IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read presence from Redis: %w", err)
	}

	v, err := DecodeValue(raw)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Delete implements Collection.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	removed, err := s.rdb.HDel(ctx, PresenceKey(s.session), key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete presence from Redis: %w", err)
	}
	if removed == 0 {
		return nil
	}
	return s.publish(ctx, &Event{Key: key, Deleted: true})
}

// Len implements Collection.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	n, err := s.rdb.HLen(ctx, PresenceKey(s.session)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count presence entries: %w", err)
	}
	return int(n), nil
}

// ForEach implements Collection. Entries are read in one HGETALL and visited
// in key order, since Redis hashes carry no insertion order.
func (s *RedisStore) ForEach(ctx context.Context, fn func(key string, value any) error) error {
	hash, err := s.rdb.HGetAll(ctx, PresenceKey(s.session)).Result()
	if err != nil {
		return fmt.Errorf("failed to read presence from Redis: %w", err)
	}

	keys := lo.Keys(hash)
	sort.Strings(keys)

	for _, key := range keys {
		v, err := DecodeValue(hash[key])
		if err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}
		if err := fn(key, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) publish(ctx context.Context, e *Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal presence event: %w", err)
	}
	if err := s.rdb.Publish(ctx, PresenceEventsChannel(s.session), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish presence event: %w", err)
	}
	return nil
}

// Subscription is an active Pub/Sub subscription to presence events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of presence events.
// The channel is closed when the subscription is closed or the context is cancelled.
func (sub *Subscription) Events() <-chan *Event {
	return sub.events
}

// Errors returns the channel of non-fatal subscription errors. Messages that
// fail to decode are skipped and reported here.
func (sub *Subscription) Errors() <-chan error {
	return sub.errors
}

// Close stops the subscription. Implements io.Closer. Safe to call more than once.
func (sub *Subscription) Close() error {
	sub.once.Do(sub.cancel)
	return nil
}

// Subscribe subscribes to presence events for this session.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once: a slow subscriber can miss events.
func (s *RedisStore) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := s.rdb.Subscribe(ctx, PresenceEventsChannel(s.session))

	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to presence events: %w", err)
	}

	eventsChan := make(chan *Event, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal presence event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
