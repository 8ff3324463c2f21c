package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type cachedAnswer struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources"`
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestResponseCache_LocalOnly(t *testing.T) {
	local := NewTTLCache(10, time.Hour, zap.NewNop())
	rc := NewResponseCache(local, nil, zap.NewNop())
	ctx := context.Background()

	rc.Set(ctx, "k", cachedAnswer{Text: "hi", Sources: []string{"Resume"}}, time.Minute)

	var got cachedAnswer
	require.True(t, rc.Get(ctx, "k", &got))
	assert.Equal(t, "hi", got.Text)
	assert.Equal(t, []string{"Resume"}, got.Sources)
}

func TestResponseCache_Miss(t *testing.T) {
	local := NewTTLCache(10, time.Hour, zap.NewNop())
	rc := NewResponseCache(local, nil, zap.NewNop())

	var got cachedAnswer
	assert.False(t, rc.Get(context.Background(), "absent", &got))
}

func TestResponseCache_RedisTierHit(t *testing.T) {
	_, client := newTestRedis(t)
	local := NewTTLCache(10, time.Hour, zap.NewNop())
	rc := NewResponseCache(local, client, zap.NewNop())
	ctx := context.Background()

	rc.Set(ctx, "k", cachedAnswer{Text: "answer"}, time.Minute)

	// Drop the local tier; the Redis tier should still serve and backfill.
	local.Clear()
	require.Equal(t, 0, local.Len())

	var got cachedAnswer
	require.True(t, rc.Get(ctx, "k", &got))
	assert.Equal(t, "answer", got.Text)
	assert.Equal(t, 1, local.Len(), "redis hit should backfill the local tier")
}

func TestResponseCache_RedisExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	local := NewTTLCache(10, time.Hour, zap.NewNop())
	rc := NewResponseCache(local, client, zap.NewNop())
	ctx := context.Background()

	rc.Set(ctx, "k", cachedAnswer{Text: "stale"}, time.Second)
	local.Clear()
	mr.FastForward(2 * time.Second)

	var got cachedAnswer
	assert.False(t, rc.Get(ctx, "k", &got))
}

func TestResponseCache_RedisDownDegradesToLocal(t *testing.T) {
	mr, client := newTestRedis(t)
	local := NewTTLCache(10, time.Hour, zap.NewNop())
	rc := NewResponseCache(local, client, zap.NewNop())
	ctx := context.Background()

	mr.Close()

	// Set and Get must still work through the local tier.
	rc.Set(ctx, "k", cachedAnswer{Text: "local"}, time.Minute)

	var got cachedAnswer
	require.True(t, rc.Get(ctx, "k", &got))
	assert.Equal(t, "local", got.Text)
}

func TestResponseCache_Delete(t *testing.T) {
	_, client := newTestRedis(t)
	local := NewTTLCache(10, time.Hour, zap.NewNop())
	rc := NewResponseCache(local, client, zap.NewNop())
	ctx := context.Background()

	rc.Set(ctx, "k", cachedAnswer{Text: "x"}, time.Minute)
	rc.Delete(ctx, "k")

	var got cachedAnswer
	assert.False(t, rc.Get(ctx, "k", &got))
}
