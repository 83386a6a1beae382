package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces catalog entries in a shared Redis database.
const redisKeyPrefix = "ontap:"

// RedisStore is the durable tier backed by Redis.
// Entries expire after a fixed TTL measured from insertion.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewRedisStore creates a durable store with the given TTL.
// A non-positive ttl falls back to DefaultTTL.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		redis: redisClient,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// Get retrieves a value by key.
// Returns ErrCacheMiss if the key doesn't exist or entry is expired.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.GetEntry(ctx, key)
	if err != nil {
		return nil, err
	}
	return entry.Data, nil
}

// GetEntry retrieves the stored entry by key, with its expiry.
func (s *RedisStore) GetEntry(ctx context.Context, key string) (*Entry, error) {
	data, err := s.redis.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues(s.Name()).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(s.Name(), "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues(s.Name(), "get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	// Redis evicts on its own clock; this covers clock skew between us and it.
	if entry.IsExpiredAt(s.now()) {
		_ = s.Delete(ctx, key)
		CacheMisses.WithLabelValues(s.Name()).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(s.Name()).Inc()
	return &entry, nil
}

// Set stores a value with the store TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	now := s.now()
	entry := NewEntry(value, now, s.ttl)

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues(s.Name(), "set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.redis.Set(ctx, redisKeyPrefix+key, data, entry.TTLAt(now)).Err(); err != nil {
		CacheErrors.WithLabelValues(s.Name(), "set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheWrittenBytes.WithLabelValues(s.Name()).Add(float64(len(value)))
	return nil
}

// Delete removes an entry.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		CacheErrors.WithLabelValues(s.Name(), "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// ListKeys scans the catalog namespace and returns keys without the prefix.
func (s *RedisStore) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string

	iter := s.redis.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues(s.Name(), "list").Inc()
		return nil, fmt.Errorf("redis scan: %w", err)
	}

	return keys, nil
}

// TTL returns the configured entry lifetime.
func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

// Name returns "redis".
func (s *RedisStore) Name() string {
	return "redis"
}

// Ensure RedisStore implements Store
var (
	_ Store       = (*RedisStore)(nil)
	_ EntryReader = (*RedisStore)(nil)
)
