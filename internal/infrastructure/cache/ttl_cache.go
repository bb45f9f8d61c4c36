package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is the lifetime of a memoized analytics result.
const DefaultTTL = 5 * time.Minute

// Clock returns the current time. Injectable for tests.
type Clock func() time.Time

// ttlEntry wraps a cached value with the time it was stored
type ttlEntry[V any] struct {
	value    V
	storedAt time.Time
}

// TTLCache memoizes values by Key for a fixed time window. An entry is
// served only while now - storedAt < ttl. Concurrent writers to the same
// key are last-write-wins.
type TTLCache[V any] struct {
	name    string
	mu      sync.RWMutex
	entries map[Key]ttlEntry[V]
	ttl     time.Duration
	now     Clock
	l2      ResultStore
	logger  *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// TTLCacheOption configures a TTLCache
type TTLCacheOption func(*ttlOptions)

type ttlOptions struct {
	ttl    time.Duration
	now    Clock
	l2     ResultStore
	logger *zap.Logger
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) TTLCacheOption {
	return func(o *ttlOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock injects the time source.
func WithClock(now Clock) TTLCacheOption {
	return func(o *ttlOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithResultStore adds a shared second-level store consulted on L1 misses.
func WithResultStore(store ResultStore) TTLCacheOption {
	return func(o *ttlOptions) {
		o.l2 = store
	}
}

// WithTTLLogger sets the logger for the cache
func WithTTLLogger(logger *zap.Logger) TTLCacheOption {
	return func(o *ttlOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewTTLCache creates a named TTL cache.
func NewTTLCache[V any](name string, opts ...TTLCacheOption) *TTLCache[V] {
	o := ttlOptions{ttl: DefaultTTL, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &TTLCache[V]{
		name:    name,
		entries: make(map[Key]ttlEntry[V]),
		ttl:     o.ttl,
		now:     o.now,
		l2:      o.l2,
		logger:  o.logger.With(zap.String("cache", name)),
	}
}

// TTL returns the configured lifetime.
func (c *TTLCache[V]) TTL() time.Duration {
	return c.ttl
}

func (c *TTLCache[V]) fresh(e ttlEntry[V], now time.Time) bool {
	return now.Sub(e.storedAt) < c.ttl
}

// Get returns a live entry. Expired entries are removed and reported as a miss.
func (c *TTLCache[V]) Get(key Key) (V, bool) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.fresh(e, now) {
		c.hits.Add(1)
		return e.value, true
	}
	if ok {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && !c.fresh(cur, now) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}

	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set stores value with the current time.
func (c *TTLCache[V]) Set(key Key, value V) {
	c.setAt(key, value, c.now())
}

func (c *TTLCache[V]) setAt(key Key, value V, storedAt time.Time) {
	c.mu.Lock()
	c.entries[key] = ttlEntry[V]{value: value, storedAt: storedAt}
	c.mu.Unlock()
}

// Delete removes one key.
func (c *TTLCache[V]) Delete(key Key) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear purges every entry, including the shared store when one is attached.
func (c *TTLCache[V]) Clear(ctx context.Context) {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[Key]ttlEntry[V])
	c.mu.Unlock()

	if c.l2 != nil {
		if err := c.l2.Clear(ctx, c.name); err != nil {
			c.logger.Warn("Failed to clear result store", zap.Error(err))
		}
	}
	c.logger.Debug("Cache cleared", zap.Int("entries", n))
}

// Prune drops expired entries and returns how many were removed.
func (c *TTLCache[V]) Prune() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if !c.fresh(e, now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, live or not yet pruned.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counters.
func (c *TTLCache[V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// GetOrLoad returns the memoized value for key, consulting the shared store
// on an L1 miss and calling load on a full miss. A load error is returned
// as is and nothing is cached.
func (c *TTLCache[V]) GetOrLoad(ctx context.Context, key Key, load func(ctx context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		c.logger.Debug("Cache hit", zap.Stringer("key", key))
		return v, true, nil
	}

	if c.l2 != nil {
		var v V
		storedAt, found, err := c.l2.Get(ctx, c.name, key, &v)
		if err != nil {
			c.logger.Warn("Result store read failed", zap.Stringer("key", key), zap.Error(err))
		} else if found && c.fresh(ttlEntry[V]{storedAt: storedAt}, c.now()) {
			c.setAt(key, v, storedAt)
			c.logger.Debug("Result store hit", zap.Stringer("key", key))
			return v, true, nil
		}
	}

	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, false, err
	}

	now := c.now()
	c.setAt(key, v, now)
	if c.l2 != nil {
		if err := c.l2.Set(ctx, c.name, key, v, now, c.ttl); err != nil {
			c.logger.Warn("Result store write failed", zap.Stringer("key", key), zap.Error(err))
		}
	}
	return v, false, nil
}
