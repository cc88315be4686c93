// Package cache provides a Redis query cache keyed by query hash and
// index version, so cached retrievals invalidate on reindex.
package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const versionKey = "rca:index:version"

// RedisCache caches retrieval responses in Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis at the given URL.
func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis connection failed: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Get retrieves a cached value; empty string when the key is absent.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Set stores a value with a TTL.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// IndexVersion returns the current index version, zero when unset.
func (c *RedisCache) IndexVersion(ctx context.Context) (int64, error) {
	val, err := c.client.Get(ctx, versionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// BumpIndexVersion invalidates all cached queries by incrementing the
// index version after a successful reindex.
func (c *RedisCache) BumpIndexVersion(ctx context.Context) (int64, error) {
	return c.client.Incr(ctx, versionKey).Result()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// QueryKey derives the cache key for a retrieval query at an index
// version.
func QueryKey(rawText string, topK int, version int64) string {
	h := sha256.Sum256([]byte(rawText))
	return fmt.Sprintf("rca:query:%x:%d:%d", h[:8], topK, version)
}
