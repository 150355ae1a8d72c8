// Package cache is the TTL key-value store fronting provider reads,
// backed by Redis and layered with singleflight so concurrent callers
// awaiting the same missing key share one producer.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"harmonia/internal/metrics"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a TTL-backed key-value store with per-key concurrent-miss dedup.
type Cache struct {
	rdb    *redis.Client
	group  singleflight.Group
	logger *zap.Logger
}

// New creates a Cache backed by the given Redis client.
func New(rdb *redis.Client, logger *zap.Logger) *Cache {
	return &Cache{rdb: rdb, logger: logger}
}

// Set stores value under key with the given TTL, JSON-encoded.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

// Get decodes the value stored under key into dest, returning ErrMiss if
// absent or expired.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.WithLabelValues(keyPrefix(key)).Inc()
		return ErrMiss
	}
	if err != nil {
		return err
	}
	metrics.CacheHits.WithLabelValues(keyPrefix(key)).Inc()
	return json.Unmarshal(b, dest)
}

// keyPrefix reduces a cache key to its namespace segment ("search",
// "playlist_tracks", ...) so the hit/miss counters stay low-cardinality.
func keyPrefix(key string) string {
	prefix, _, ok := strings.Cut(key, ":")
	if !ok {
		return "other"
	}
	return prefix
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// GetOrCompute implements the get-or-compute singleflight pattern:
// concurrent callers for the same key share one in-flight producer call. produce's result is cached for
// ttl on success; its error is returned to all waiters but nothing is
// cached.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, dest interface{}, produce func(ctx context.Context) (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.Is(err, ErrMiss) {
		c.logger.Warn("cache read failed, falling through to producer", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, result, ttl); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
		return result, nil
	})
	if err != nil {
		return err
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}
