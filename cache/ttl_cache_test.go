package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeClock is a controllable time source for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestTTLCache_SetGet(t *testing.T) {
	c := NewTTLCache(10, time.Hour, zap.NewNop())

	c.Set("greeting", "hello", 0)

	v, ok := c.Get("greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", v)
}

func TestTTLCache_MissingKey(t *testing.T) {
	c := NewTTLCache(10, time.Hour, zap.NewNop())

	v, ok := c.Get("absent")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestTTLCache_Expiry(t *testing.T) {
	clock := newFakeClock()
	c := NewTTLCache(10, time.Hour, zap.NewNop(), WithClock(clock.Now))

	c.Set("short", 42, 100*time.Millisecond)

	// Retrievable immediately.
	v, ok := c.Get("short")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	// Miss after the TTL has elapsed; the lazy expiry also deletes.
	clock.Advance(150 * time.Millisecond)
	_, ok = c.Get("short")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCache_DefaultTTLApplied(t *testing.T) {
	clock := newFakeClock()
	c := NewTTLCache(10, time.Minute, zap.NewNop(), WithClock(clock.Now))

	c.Set("k", "v", 0)

	clock.Advance(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestTTLCache_EvictsOldestInserted(t *testing.T) {
	c := NewTTLCache(3, time.Hour, zap.NewNop())

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)
	c.Set("d", 4, 0)

	assert.Equal(t, 3, c.Len())
	assert.False(t, c.Has("a"), "first-inserted key should be evicted")
	assert.True(t, c.Has("b"))
	assert.True(t, c.Has("c"))
	assert.True(t, c.Has("d"))
}

func TestTTLCache_CapacityExact(t *testing.T) {
	const maxSize = 5
	c := NewTTLCache(maxSize, time.Hour, zap.NewNop())

	for i := 0; i < maxSize+1; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i, 0)
	}

	assert.Equal(t, maxSize, c.Len())
	assert.False(t, c.Has("key-0"))
}

func TestTTLCache_OverwriteDoesNotEvict(t *testing.T) {
	c := NewTTLCache(2, time.Hour, zap.NewNop())

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("a", 10, 0)

	assert.Equal(t, 2, c.Len())
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.True(t, c.Has("b"))
}

func TestTTLCache_Delete(t *testing.T) {
	c := NewTTLCache(10, time.Hour, zap.NewNop())

	c.Set("k", "v", 0)
	assert.True(t, c.Delete("k"))
	assert.False(t, c.Delete("k"))
	assert.False(t, c.Has("k"))
}

func TestTTLCache_Clear(t *testing.T) {
	c := NewTTLCache(10, time.Hour, zap.NewNop())

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has("a"))
}

func TestTTLCache_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := NewTTLCache(10, time.Hour, zap.NewNop(), WithClock(clock.Now))

	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)

	clock.Advance(2 * time.Second)
	purged := c.Sweep()

	assert.Equal(t, 1, purged)
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Has("long"))
}

func TestTTLCache_EvictionAfterDelete(t *testing.T) {
	c := NewTTLCache(2, time.Hour, zap.NewNop())

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Delete("a")
	c.Set("c", 3, 0)
	c.Set("d", 4, 0)

	// "b" is now the oldest surviving insertion.
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Has("b"))
	assert.True(t, c.Has("c"))
	assert.True(t, c.Has("d"))
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := NewTTLCache(100, time.Hour, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("key-%d-%d", n, j%20)
				c.Set(key, j, 0)
				c.Get(key)
				if j%50 == 0 {
					c.Delete(key)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 100)
}
