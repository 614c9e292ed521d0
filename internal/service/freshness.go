package service

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so freshness tests can expire entries without
// sleeping.
type Clock func() time.Time

// Cache keys for the two idempotent reads that are safe to serve stale.
// Session loads are never cached: a session's content can change between
// visits and the user expects it current the instant they open it.
const (
	cacheKeySessions = "session_list"
	cacheKeyStatus   = "system_status"
)

// FreshnessCache guards idempotent reads: a read younger than the TTL must
// not trigger a new network call. Entries are keyed independently so
// concurrent reads do not interfere with each other.
type FreshnessCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     Clock
	fetched map[string]time.Time
}

func NewFreshnessCache(ttl time.Duration, now Clock) *FreshnessCache {
	if now == nil {
		now = time.Now
	}
	return &FreshnessCache{
		ttl:     ttl,
		now:     now,
		fetched: make(map[string]time.Time),
	}
}

func (c *FreshnessCache) ShouldRefetch(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.fetched[key]
	if !ok {
		return true
	}
	return c.now().Sub(last) >= c.ttl
}

func (c *FreshnessCache) MarkFetched(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetched[key] = c.now()
}

func (c *FreshnessCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.fetched, key)
}
