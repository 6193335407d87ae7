// Package cache provides the Redis-backed eligibility result cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"schemefinder/pkg/platform/sentinel"
)

// RedisCache stores matched scheme IDs as a JSON array under the caller's key.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns sentinel.ErrNotFound when key is absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) ([]int, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var ids []int
	if err := json.Unmarshal(raw, &ids); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		return nil, fmt.Errorf("decode cached ids for %s: %w", key, sentinel.ErrNotFound)
	}
	return ids, nil
}

// Set stores ids with ttl. An empty result is cached too.
func (c *RedisCache) Set(ctx context.Context, key string, ids []int, ttl time.Duration) error {
	if ids == nil {
		ids = []int{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode ids for %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
