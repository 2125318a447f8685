// Package cache implements the Template Cache: an exporter-scoped,
// sliding-TTL map from template key to compiled template. Unlike the
// ticker-driven sweeper this is adapted from, expiry here is purely
// opportunistic — triggered by Put, never by a background goroutine.
package cache

import (
	"sync"
	"time"
)

// Key scopes a template id to the exporter session that declared it.
// The same template_id is routinely reused across unrelated exporters
// (and across observation domains on the same host), so every lookup
// and every insert must go through this 4-tuple.
type Key struct {
	SourceID   uint32
	TemplateID uint16
	Host       string
	Port       int
}

type entry struct {
	template   interface{}
	insertedAt time.Time
}

// Cache is a concurrency-safe template cache with sliding-TTL entries.
// A single mutex guards the whole map; cardinality is bounded by
// exporters times templates-per-exporter, which stays small enough
// that a coarse lock never becomes a bottleneck.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]entry
	ttl     time.Duration
	now     func() time.Time
}

// New returns an empty cache with the given TTL. A zero or negative
// ttl disables expiry entirely (entries live until overwritten).
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[Key]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put inserts or replaces the template under key, stamping the current
// time, then opportunistically sweeps expired entries. There is no
// background sweeper; expiry only ever happens on the Put path.
func (c *Cache) Put(key Key, template interface{}) {
	now := c.now()
	c.mu.Lock()
	c.entries[key] = entry{template: template, insertedAt: now}
	c.sweepLocked(now)
	c.mu.Unlock()
}

// Get returns the template for key if present and unexpired, refreshing
// its insertion time (sliding TTL) on success.
func (c *Cache) Get(key Key) (interface{}, bool) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.expired(e, now) {
		delete(c.entries, key)
		return nil, false
	}
	e.insertedAt = now
	c.entries[key] = e
	return e.template, true
}

// Len returns the current entry count, including any not-yet-swept
// expired entries. Exposed for the cache-size metric gauge.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) expired(e entry, now time.Time) bool {
	if c.ttl <= 0 {
		return false
	}
	return now.Sub(e.insertedAt) > c.ttl
}

// sweepLocked removes every expired entry. Caller must hold c.mu.
func (c *Cache) sweepLocked(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for k, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, k)
		}
	}
}
