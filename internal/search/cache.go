package search

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"mediabot/internal/domain"
)

// resultCache is a time-bounded key-value store for ranked fallback result
// sets. One cache instance is owned by the executor; nothing else touches
// it. The clock is injected so tests expire entries without waiting, and
// Sweep is explicit rather than a background goroutine: the executor calls
// it on every write, which keeps the map bounded by write traffic.
type resultCache struct {
	clock clockwork.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	records   []domain.ContentRecord
	expiresAt time.Time
}

func newResultCache(clock clockwork.Clock, ttl time.Duration) *resultCache {
	return &resultCache{
		clock:   clock,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached ranked list, or false if absent or expired.
func (c *resultCache) Get(key string) ([]domain.ContentRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.records, true
}

// Put stores a ranked list and sweeps expired neighbors.
func (c *resultCache) Put(key string, records []domain.ContentRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{records: records, expiresAt: c.clock.Now().Add(c.ttl)}
	c.sweepLocked()
}

// Sweep drops every expired entry and returns how many were removed.
func (c *resultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked()
}

func (c *resultCache) sweepLocked() int {
	now := c.clock.Now()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *resultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
