// Package cache provides the process-wide catalog/pricing cache.
// Reads are lock-free; writers serialize per key. Stale entries whose
// refresh fails are returned with a stale flag instead of an error.
package cache

import (
	"context"
	"sync"
	"time"
)

// entry is a cached value with governance metadata
type entry struct {
	value     interface{}
	createdAt time.Time
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// FetchFunc produces a fresh value for a key
type FetchFunc func(ctx context.Context) (interface{}, error)

// Cache is a TTL map keyed on (provider, region, query-shape) strings
type Cache struct {
	ttl time.Duration

	// entries uses sync.Map so concurrent reads take no lock
	entries sync.Map // string -> *entry

	// locks serializes writers per key
	locks sync.Map // string -> *sync.Mutex

	// hit/miss counters for the diagnostic hit-ratio
	mu     sync.Mutex
	hits   int64
	misses int64

	// now is replaceable in tests
	now func() time.Time
}

// New creates a cache with the given per-entry TTL
func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, now: time.Now}
}

// Get returns a live cached value
func (c *Cache) Get(key string) (interface{}, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		c.count(false)
		return nil, false
	}
	e := v.(*entry)
	if e.expired(c.now()) {
		c.count(false)
		return nil, false
	}
	c.count(true)
	return e.value, true
}

// Put stores a value under the configured TTL
func (c *Cache) Put(key string, value interface{}) {
	now := c.now()
	c.entries.Store(key, &entry{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
	})
}

// GetOrFetch returns the cached value, fetching on miss or expiry.
// When the entry has expired and the refresh fails, the last successful
// value is returned with stale=true (stale-on-error semantics).
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (value interface{}, stale bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, false, nil
	}

	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	// Another writer may have refreshed while we waited.
	if v, ok := c.Get(key); ok {
		return v, false, nil
	}

	fresh, fetchErr := fetch(ctx)
	if fetchErr != nil {
		if v, ok := c.entries.Load(key); ok {
			return v.(*entry).value, true, nil
		}
		return nil, false, fetchErr
	}

	c.Put(key, fresh)
	return fresh, false, nil
}

// Invalidate removes a key
func (c *Cache) Invalidate(key string) {
	c.entries.Delete(key)
}

// HitRatio returns the observed hit ratio, 0 when unused
func (c *Cache) HitRatio() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

func (c *Cache) keyLock(key string) *sync.Mutex {
	v, _ := c.locks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (c *Cache) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}
