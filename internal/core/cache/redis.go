package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "recipe:extract:"

// RedisCache is a Cache backed by Redis, for deployments with more than one
// instance sharing extraction results.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (*recipe.Recipe, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, common.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var r recipe.Recipe
	if err := json.Unmarshal(data, &r); err != nil {
		// A corrupt entry is treated as a miss so extraction can overwrite it.
		return nil, common.ErrCacheMiss
	}
	return &r, nil
}

// Put writes with SETNX so an existing entry is never replaced.
func (c *RedisCache) Put(ctx context.Context, key string, r *recipe.Recipe) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := c.client.SetNX(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
