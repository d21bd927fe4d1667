// Package coalesce implements TrackedCache's Go counterpart: a
// TTL-bounded cache that coalesces concurrent fetches for the same key
// so at most one fetch is in flight per key at a time, with every other
// caller waiting on that fetch's result instead of triggering its own.
package coalesce

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Stats are one Cache's hit/miss/in-flight counters. They are not
// exported to /metrics or to the cache-status endpoints.
type Stats struct {
	hits     atomic.Uint64
	misses   atomic.Uint64
	inFlight atomic.Int64
}

func (s *Stats) recordHit()  { s.hits.Add(1) }
func (s *Stats) recordMiss() { s.misses.Add(1) }

// Hits returns the cumulative hit count.
func (s *Stats) Hits() uint64 { return s.hits.Load() }

// Misses returns the cumulative miss count.
func (s *Stats) Misses() uint64 { return s.misses.Load() }

// Total returns hits + misses.
func (s *Stats) Total() uint64 { return s.Hits() + s.Misses() }

// HitRate returns the hit percentage, 0 when nothing has been recorded.
func (s *Stats) HitRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Hits()) / float64(total) * 100
}

// InFlight returns the number of fetches currently in progress.
func (s *Stats) InFlight() int64 { return s.inFlight.Load() }

// Reset zeroes the hit/miss counters. In-flight is never reset; it is a
// live gauge, not a cumulative counter.
func (s *Stats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
}

type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Cache is a namespaced, TTL-bounded, coalescing cache for one data
// shape. Namespace it once per upstream resource kind (prices, config,
// contract query results, ...) rather than sharing a single instance
// across unrelated key spaces.
type Cache[V any] struct {
	name  string
	inner *lru.LRU[string, V]
	stats Stats

	mu       sync.Mutex
	inFlight map[string]*call[V]
}

// New builds a coalescing cache holding up to capacity entries, each
// expiring ttl after insertion.
func New[V any](name string, capacity int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		name:     name,
		inner:    lru.NewLRU[string, V](capacity, nil, ttl),
		inFlight: make(map[string]*call[V]),
	}
}

// Name returns the cache's namespace label.
func (c *Cache[V]) Name() string { return c.name }

// Stats returns the cache's hit/miss/in-flight counters.
func (c *Cache[V]) Stats() *Stats { return &c.stats }

// Get reads the cache directly, recording a hit or miss. It never
// triggers a fetch.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.inner.Get(key)
	if ok {
		c.stats.recordHit()
	} else {
		c.stats.recordMiss()
	}
	return v, ok
}

// Insert stores a value directly, bypassing coalescing.
func (c *Cache[V]) Insert(key string, value V) {
	c.inner.Add(key, value)
}

// Invalidate removes one key.
func (c *Cache[V]) Invalidate(key string) {
	c.inner.Remove(key)
}

// InvalidateAll clears the cache.
func (c *Cache[V]) InvalidateAll() {
	c.inner.Purge()
}

// EntryCount reports the number of live entries.
func (c *Cache[V]) EntryCount() int {
	return c.inner.Len()
}

// GetOrFetch returns the cached value for key, or runs fetch exactly
// once per key among any number of concurrent callers: the first caller
// to miss starts the fetch, every other caller that arrives before it
// completes waits on the same result instead of starting its own. A
// failed fetch is never cached and is replayed to every waiter.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	c.mu.Lock()
	if existing, ok := c.inFlight[key]; ok {
		c.mu.Unlock()
		return c.wait(ctx, existing)
	}

	cl := &call[V]{done: make(chan struct{})}
	c.inFlight[key] = cl
	c.stats.inFlight.Add(1)
	c.mu.Unlock()

	cl.val, cl.err = fetch(ctx)

	if cl.err == nil {
		c.inner.Add(key, cl.val)
	}

	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
	c.stats.inFlight.Add(-1)
	close(cl.done)

	return cl.val, cl.err
}

func (c *Cache[V]) wait(ctx context.Context, cl *call[V]) (V, error) {
	select {
	case <-cl.done:
		return cl.val, cl.err
	case <-ctx.Done():
		var zero V
		return zero, fmt.Errorf("coalesce: %s: %w", c.name, ctx.Err())
	}
}

// InFlightCount returns the number of keys currently being fetched.
func (c *Cache[V]) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}
