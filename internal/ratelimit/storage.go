package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/storage/redis/v3"
)

// KV is the subset of fiber.Storage the limiter needs.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
}

// StorageStore keeps entries in a Fiber storage backend such as Redis, so
// counters are shared between replicas and survive restarts.
type StorageStore struct {
	kv     KV
	prefix string
	now    func() time.Time
}

// NewStorageStore wraps a Fiber storage backend.
func NewStorageStore(kv KV, prefix string) *StorageStore {
	return &StorageStore{kv: kv, prefix: prefix, now: time.Now}
}

// NewRedisStorage connects the Fiber Redis storage used for rate limiting.
func NewRedisStorage(url string) *redis.Storage {
	return redis.New(redis.Config{
		URL: url,
	})
}

// Get returns the entry for key.
func (s *StorageStore) Get(_ context.Context, key string) (Entry, bool, error) {
	data, err := s.kv.Get(s.prefix + key)
	if err != nil {
		return Entry{}, false, fmt.Errorf("storage get: %w", err)
	}
	if len(data) == 0 {
		return Entry{}, false, nil
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode entry: %w", err)
	}
	return e, true, nil
}

// Set stores the entry for key until its window ends.
func (s *StorageStore) Set(_ context.Context, key string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	ttl := e.WindowResetAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := s.kv.Set(s.prefix+key, data, ttl); err != nil {
		return fmt.Errorf("storage set: %w", err)
	}
	return nil
}

// RedisHealth reports whether the Redis storage backend is reachable.
type RedisHealth struct {
	Storage *redis.Storage
}

// Ping checks the underlying Redis connection.
func (h RedisHealth) Ping(ctx context.Context) error {
	return h.Storage.Conn().Ping(ctx).Err()
}
