/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package gateway

import (
	"sync"
	"time"
)

// CacheEntry is a cached upstream response body.
type CacheEntry struct {
	Key       string
	Data      []byte
	ExpiresAt time.Time
}

// IsFresh reports whether the entry has not expired yet at the given moment.
// Expired entries are still valid fallback values.
func (e CacheEntry) IsFresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// ResourceCache maps request keys to the last successful response.
// Entries are never evicted; staleness is evaluated lazily by readers.
type ResourceCache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	now     func() time.Time

	metricsCollector MetricsCollector
}

// NewResourceCache creates a new ResourceCache.
// Nil now means time.Now, nil metricsCollector disables metrics.
func NewResourceCache(now func() time.Time, metricsCollector MetricsCollector) *ResourceCache {
	if now == nil {
		now = time.Now
	}
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}
	return &ResourceCache{
		entries:          make(map[string]CacheEntry),
		now:              now,
		metricsCollector: metricsCollector,
	}
}

// Get returns the entry for the key, fresh or stale.
func (c *ResourceCache) Get(key string) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Set stores data under the key for ttl. Non-positive ttl leaves the cache untouched.
func (c *ResourceCache) Set(key string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = CacheEntry{Key: key, Data: data, ExpiresAt: c.now().Add(ttl)}
	amount := len(c.entries)
	c.mu.Unlock()
	c.metricsCollector.SetCacheEntries(amount)
}

// Len returns the number of entries, stale ones included.
func (c *ResourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
