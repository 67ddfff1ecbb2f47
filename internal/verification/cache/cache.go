// Package cache stores positive verification results so repeated public lookups
// skip the database. Document fields exposed by a lookup never change after creation,
// so entries only expire by TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docregistry/internal/verification/models"
)

const keyPrefix = "docregistry:verify:"

// RedisCache keeps results in Redis with a fixed TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedis(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get reports a miss as (nil, false, nil).
func (c *RedisCache) Get(ctx context.Context, identifier string) (*models.Result, bool, error) {
	raw, err := c.client.Get(ctx, key(identifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var result models.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, identifier string, result *models.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, key(identifier), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func key(identifier string) string {
	return keyPrefix + identifier
}

// Noop never hits. It is used when Redis is not configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (*models.Result, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, *models.Result) error       { return nil }
