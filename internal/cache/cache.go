// Package cache implements the TTL-keyed result cache the scheduler consults
// before dispatching a detection task. Entries are reclaimed only by TTL
// expiry or an explicit Clear; there is no size-based eviction, which is fine
// for batch-scoped use but worth revisiting if the engine ever runs as a
// long-lived daemon.
package cache

import (
	"sync"
	"time"
)

// entry is a stored value with its expiry instant.
type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL-keyed store. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewWithClock creates a cache using the given clock. Used by tests to
// control expiry without sleeping.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Key derives the cache key for a detection task.
func Key(category, taskID string) string {
	return category + taskID
}

// Get returns the stored value for key if it hasn't expired. An expired
// entry is evicted and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, valid for ttl from now.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Delete removes a single entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Len returns the number of stored entries, including any that have expired
// but haven't been read since.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
