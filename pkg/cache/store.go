package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Stats are the backing store's cumulative lookup counters. They are
// store-wide since the store's process started, not scoped to this
// application's keys.
type Stats struct {
	Hits   int64
	Misses int64
}

// Store is the key-value boundary the cache subsystem runs against. The
// backing implementation must expire entries on its own once their TTL
// lapses and must be shared by all serving workers.
type Store interface {
	// Get returns the value for key, or ok=false when the key is absent
	// or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key and reports whether it was present.
	Delete(ctx context.Context, key string) (wasPresent bool, err error)

	// Stats returns the store's cumulative hit/miss counters.
	Stats(ctx context.Context) (Stats, error)
}

// RedisStore implements Store with a Redis backend.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{redis: redisClient}
}

// Get retrieves the raw value for key. A missing key is not an error.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		storeErrors.WithLabelValues("get").Inc()
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores value under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		storeErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key and reports whether it existed.
func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.redis.Del(ctx, key).Result()
	if err != nil {
		storeErrors.WithLabelValues("delete").Inc()
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

// Stats reads keyspace_hits and keyspace_misses from INFO stats.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	info, err := s.redis.Info(ctx, "stats").Result()
	if err != nil {
		storeErrors.WithLabelValues("stats").Inc()
		return Stats{}, fmt.Errorf("redis info: %w", err)
	}
	return parseInfoStats(info), nil
}

// parseInfoStats extracts the keyspace counters from a raw INFO section.
// Unknown or malformed lines are ignored.
func parseInfoStats(info string) Stats {
	var stats Stats
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		switch name {
		case "keyspace_hits":
			stats.Hits = n
		case "keyspace_misses":
			stats.Misses = n
		}
	}
	return stats
}
