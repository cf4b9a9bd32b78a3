// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scorecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStale reports a value computed before the workspace's latest invalidation.
var ErrStale = errors.New("stale score generation")

// DefaultTTL bounds how long derived scores live without a write.
const DefaultTTL = 10 * time.Minute

// RedisCache stores computed scores per workspace in one Redis hash, so a
// single DEL invalidates every kind at once. A per-workspace generation
// counter is bumped on every invalidation; Set only writes when the
// generation it was computed under is still current.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to redisURL and verifies the connection.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client), nil
}

// NewRedisCacheWithClient creates a cache from an existing Redis client.
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "scores:", ttl: DefaultTTL}
}

// WithTTL overrides the expiry applied on every Set.
func (c *RedisCache) WithTTL(ttl time.Duration) *RedisCache {
	c.ttl = ttl
	return c
}

func (c *RedisCache) key(workspaceID string) string {
	return c.prefix + workspaceID
}

func (c *RedisCache) genKey(workspaceID string) string {
	return c.prefix + "gen:" + workspaceID
}

// Generation returns the workspace's current invalidation count.
func (c *RedisCache) Generation(ctx context.Context, workspaceID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(workspaceID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get score generation: %w", err)
	}
	return gen, nil
}

// Get decodes the cached value for kind into dst. It reports false on a miss.
func (c *RedisCache) Get(ctx context.Context, workspaceID, kind string, dst any) (bool, error) {
	data, err := c.client.HGet(ctx, c.key(workspaceID), kind).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get cached %s: %w", kind, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", kind, err)
	}
	return true, nil
}

// Set stores v for kind and refreshes the workspace expiry. The write is
// skipped when the workspace was invalidated after gen was read, so a value
// computed from rows older than the last write never lands in the cache.
func (c *RedisCache) Set(ctx context.Context, workspaceID, kind string, gen int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	key, genKey := c.key(workspaceID), c.genKey(workspaceID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, kind, data)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, ErrStale) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("set cached %s: %w", kind, err)
	}
	return nil
}

// Invalidate drops every cached score for the workspace and bumps its
// generation so in-flight computations cannot repopulate it.
func (c *RedisCache) Invalidate(ctx context.Context, workspaceID string) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, c.genKey(workspaceID))
	pipe.Del(ctx, c.key(workspaceID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate scores: %w", err)
	}
	return nil
}

// Client exposes the underlying client so other components can share it.
func (c *RedisCache) Client() *redis.Client { return c.client }

// Ping checks if Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
