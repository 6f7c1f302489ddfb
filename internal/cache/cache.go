// Package cache provides an in-process key/value cache with per-entry TTLs.
//
// Entries expire lazily: a Get on a stale entry reports a miss and removes it.
// There is no size-based eviction; Cleanup (or Run in the background) sweeps
// entries that nobody reads again. All methods are safe for concurrent use.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultTTL is used when Set is called with a non-positive TTL.
const DefaultTTL = 5 * time.Minute

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Cache lookups that returned a live entry.",
	}, []string{"cache"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Cache lookups that found no entry or an expired one.",
	}, []string{"cache"})
)

type entry[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
}

func (e entry[V]) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	ttl time.Duration
	now func() time.Time
}

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Cache is a mutex-guarded map of string keys to values of type V.
type Cache[V any] struct {
	name string
	ttl  time.Duration
	now  func() time.Time

	mu    sync.Mutex
	items map[string]entry[V]

	hits, misses prometheus.Counter
}

// New returns an empty cache. name labels its metrics.
func New[V any](name string, opts ...Option) *Cache[V] {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return &Cache[V]{
		name:   name,
		ttl:    o.ttl,
		now:    o.now,
		items:  make(map[string]entry[V]),
		hits:   cacheHits.WithLabelValues(name),
		misses: cacheMisses.WithLabelValues(name),
	}
}

// Get returns the live value for key. An expired entry is deleted and
// reported as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if ok && e.expired(c.now()) {
		delete(c.items, key)
		ok = false
	}
	if !ok {
		c.misses.Inc()
		var zero V
		return zero, false
	}
	c.hits.Inc()
	return e.value, true
}

// Set stores value under key, replacing any previous entry. A non-positive
// ttl selects the cache default.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, storedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]entry[V])
	c.mu.Unlock()
}

// DeletePrefix removes every key starting with one of prefixes and returns
// how many entries were dropped.
func (c *Cache[V]) DeletePrefix(prefixes ...string) int {
	return c.deleteWhere(func(k string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				return true
			}
		}
		return false
	})
}

// DeleteContaining removes every key containing substr. An empty substr is a
// no-op rather than a full clear.
func (c *Cache[V]) DeleteContaining(substr string) int {
	if substr == "" {
		return 0
	}
	return c.deleteWhere(func(k string) bool { return strings.Contains(k, substr) })
}

func (c *Cache[V]) deleteWhere(match func(string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.items {
		if match(k) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Cleanup removes all expired entries and returns how many were dropped.
func (c *Cache[V]) Cleanup() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.items {
		if e.expired(now) {
			delete(c.items, k)
			n++
		}
	}
	return n
}

// Len counts stored entries, including expired ones not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys lists stored keys in no particular order.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.items))
	for k := range c.items {
		out = append(out, k)
	}
	return out
}

// Stats is a point-in-time view of the cache contents.
type Stats struct {
	Name string   `json:"name"`
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

func (c *Cache[V]) Stats() Stats {
	keys := c.Keys()
	return Stats{Name: c.name, Size: len(keys), Keys: keys}
}

// Run calls Cleanup every interval until ctx is done. A non-positive interval
// returns immediately.
func (c *Cache[V]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Cleanup()
		}
	}
}

// GetOrLoad returns the cached value for key or calls fetch and caches its
// result. Fetch errors are returned as-is and nothing is cached.
func GetOrLoad[V any](ctx context.Context, c *Cache[any], key string, ttl time.Duration, fetch func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(V); ok {
			return typed, nil
		}
	}
	v, err := fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v, ttl)
	return v, nil
}
