// Package cache is a small read-through JSON cache over redis with explicit
// invalidation. Values live under TTL'd keys; a missing or failing redis is
// treated as a cache miss, never an error surfaced to callers.
package cache

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON-encoded values under TTL'd keys.
type Cache struct {
	client *redis.Client
	logger *log.Logger
}

// New creates a Cache over an existing redis client.
func New(client *redis.Client, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Cache{client: client, logger: logger}
}

// Get unmarshals the cached value into dest. The second return is false on a
// miss or on any redis/decode failure.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logger.Printf("cache: get key=%s err=%v", key, err)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Printf("cache: decode key=%s err=%v", key, err)
		return false
	}
	return true
}

// Set stores value under key for ttl. Failures are logged, not returned:
// the cache is an optimization, not a dependency.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Printf("cache: encode key=%s err=%v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Printf("cache: set key=%s err=%v", key, err)
	}
}

// Invalidate drops the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Printf("cache: invalidate keys=%v err=%v", keys, err)
	}
}
