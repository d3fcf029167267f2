package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CacheKeyPrefix is the Redis key prefix for cached data
	CacheKeyPrefix = "cache:"
	// DefaultCacheTTL bounds how stale a cached read can get if an
	// invalidation is lost.
	DefaultCacheTTL = 5 * time.Minute
)

// Cache is a JSON read-through cache in Redis. A nil *Cache never hits and
// ignores writes, so stores work without Redis.
type Cache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewCache(rdb redis.Cmdable, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get decodes the cached value for key into dest. A miss is not an error.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, CacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, CacheKeyPrefix+key, data, c.ttl).Err()
}

// Invalidate drops key. Failures are logged; the TTL still bounds staleness.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, CacheKeyPrefix+key).Err(); err != nil {
		log.Printf("[CACHE] failed to invalidate %s: %v", key, err)
	}
}

// CacheKey generates a cache key for a resource
func CacheKey(resource string, identifier any) string {
	return fmt.Sprintf("%s:%v", resource, identifier)
}
