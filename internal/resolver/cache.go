// Package resolver maps free-text item descriptions to hierarchical ledger
// account paths through a layered chain of pattern tables, vendor history,
// per-user overrides, and an external-model enhancement, all behind
// in-memory TTL caches.
package resolver

import (
	"strings"
	"sync"
	"time"
)

const maxCleanupInterval = 5 * time.Minute

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is an in-memory cache with per-entry expiry. The clock is
// injectable so tests can assert expiry deterministically.
type TTLCache[V any] struct {
	ttl time.Duration
	now func() time.Time

	mu          sync.RWMutex
	entries     map[string]cacheEntry[V]
	lastCleanup time.Time
}

// NewTTLCache returns a cache whose entries expire after ttl.
func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return NewTTLCacheWithClock[V](ttl, time.Now)
}

// NewTTLCacheWithClock is NewTTLCache with an injectable clock.
func NewTTLCacheWithClock[V any](ttl time.Duration, now func() time.Time) *TTLCache[V] {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TTLCache[V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry[V]),
	}
}

// Get returns the cached value for key if present and not expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !now.Before(entry.expiresAt) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores value under key. A duplicate write is harmless: entries are
// recomputed values, so last-writer-wins is fine.
func (c *TTLCache[V]) Set(key string, value V) {
	now := c.now()

	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: now.Add(c.ttl)}
	c.cleanupExpiredLocked(now)
	c.mu.Unlock()
}

// Len returns the number of entries, expired or not.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TTLCache[V]) cleanupExpiredLocked(now time.Time) {
	interval := min(c.ttl, maxCleanupInterval)
	if !c.lastCleanup.IsZero() && now.Sub(c.lastCleanup) < interval {
		return
	}
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.lastCleanup = now
}

// cacheKey builds a normalized lookup key from its parts.
func cacheKey(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, part := range parts {
		normalized[i] = strings.ToLower(strings.TrimSpace(part))
	}
	return strings.Join(normalized, "|")
}
