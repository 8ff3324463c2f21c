// Package cache provides the TTL response cache for search results and
// generated answers: an in-memory bounded cache with lazy expiry, a periodic
// sweep, and an optional shared Redis tier.
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Entry is a cached value with its lifecycle timestamps.
type Entry struct {
	Value   any       `json:"value"`
	Created time.Time `json:"created"`
	Expiry  time.Time `json:"expiry"`
}

// TTLCache is a bounded in-memory key-value cache with per-entry TTL.
//
// Eviction at capacity removes the oldest *inserted* entry, not the least
// recently used one. At this scale the approximation is indistinguishable
// from LRU and keeps Set at O(1).
type TTLCache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	order      []string // insertion order, oldest first
	maxSize    int
	defaultTTL time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger
}

// Option configures a TTLCache.
type Option func(*TTLCache)

// WithClock replaces the cache's time source. Tests use this to advance
// time without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *TTLCache) { c.now = now }
}

// WithSweepInterval starts a background goroutine that purges expired
// entries every interval. Callers must Close the cache to stop it.
func WithSweepInterval(interval time.Duration) Option {
	return func(c *TTLCache) {
		go c.sweepLoop(interval)
	}
}

// NewTTLCache creates a cache holding at most maxSize entries, with
// defaultTTL applied when Set is called without an explicit TTL.
func NewTTLCache(maxSize int, defaultTTL time.Duration, logger *zap.Logger, opts ...Option) *TTLCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	c := &TTLCache{
		entries:    make(map[string]*Entry),
		order:      make([]string, 0, maxSize),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
		logger:     logger.With(zap.String("component", "ttl_cache")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set stores value under key. A zero ttl uses the cache default. When the
// cache is full, the oldest inserted entry is evicted first.
func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}

	now := c.now()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = &Entry{
		Value:   value,
		Created: now,
		Expiry:  now.Add(ttl),
	}
}

// Get returns the value for key, or (nil, false) on a miss. An expired
// entry is deleted on access and reported as a miss.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.Expiry) {
		c.deleteLocked(key)
		return nil, false
	}
	return entry.Value, true
}

// Has reports whether key holds a live entry.
func (c *TTLCache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key. It reports whether an entry was present.
func (c *TTLCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	if ok {
		c.deleteLocked(key)
	}
	return ok
}

// Clear removes all entries.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
	c.order = c.order[:0]
}

// Len returns the number of entries, expired ones included until swept.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes all expired entries and returns how many were purged.
func (c *TTLCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	purged := 0
	for key, entry := range c.entries {
		if now.After(entry.Expiry) {
			c.deleteLocked(key)
			purged++
		}
	}
	if purged > 0 {
		c.logger.Debug("cache sweep", zap.Int("purged", purged), zap.Int("remaining", len(c.entries)))
	}
	return purged
}

// Close stops the background sweep goroutine, if any.
func (c *TTLCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *TTLCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *TTLCache) evictOldestLocked() {
	for len(c.order) > 0 {
		oldest := c.order[0]
		if _, ok := c.entries[oldest]; ok {
			c.deleteLocked(oldest)
			return
		}
		// Stale order slot from an earlier delete.
		c.order = c.order[1:]
	}
}

func (c *TTLCache) deleteLocked(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
