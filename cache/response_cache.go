package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ResponseCache layers the in-memory TTL cache with an optional shared
// Redis tier. Values are stored JSON-encoded in both tiers so a local hit
// and a Redis hit decode identically. The Redis tier is best-effort: any
// Redis failure degrades to local-only behavior with a warning.
type ResponseCache struct {
	local  *TTLCache
	redis  *redis.Client
	logger *zap.Logger
}

// NewResponseCache creates a response cache. rdb may be nil for
// local-only operation.
func NewResponseCache(local *TTLCache, rdb *redis.Client, logger *zap.Logger) *ResponseCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseCache{
		local:  local,
		redis:  rdb,
		logger: logger.With(zap.String("component", "response_cache")),
	}
}

// Get loads the value for key into dest. It reports whether a live entry
// was found in either tier. A Redis hit is backfilled into the local tier.
func (c *ResponseCache) Get(ctx context.Context, key string, dest any) bool {
	if v, ok := c.local.Get(key); ok {
		if data, ok := v.([]byte); ok {
			if err := json.Unmarshal(data, dest); err == nil {
				return true
			}
			c.local.Delete(key)
		}
	}

	if c.redis == nil {
		return false
	}

	data, err := c.redis.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis get failed", zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn("redis entry undecodable, dropping", zap.String("key", key), zap.Error(err))
		c.redis.Del(ctx, c.redisKey(key))
		return false
	}

	ttl, err := c.redis.TTL(ctx, c.redisKey(key)).Result()
	if err != nil || ttl <= 0 {
		ttl = 0 // local default
	}
	c.local.Set(key, data, ttl)
	return true
}

// Set stores value under key in both tiers with the given TTL.
func (c *ResponseCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("value not cacheable", zap.String("key", key), zap.Error(err))
		return
	}

	c.local.Set(key, data, ttl)

	if c.redis != nil {
		if err := c.redis.Set(ctx, c.redisKey(key), data, ttl).Err(); err != nil {
			c.logger.Warn("redis set failed", zap.Error(err))
		}
	}
}

// Delete removes key from both tiers.
func (c *ResponseCache) Delete(ctx context.Context, key string) {
	c.local.Delete(key)
	if c.redis != nil {
		if err := c.redis.Del(ctx, c.redisKey(key)).Err(); err != nil {
			c.logger.Warn("redis del failed", zap.Error(err))
		}
	}
}

func (c *ResponseCache) redisKey(key string) string {
	return "portfolio:response_cache:" + key
}
