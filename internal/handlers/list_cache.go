package handlers

import (
	"strings"
	"sync"
	"time"
)

type cacheItem struct {
	Value   any
	Expires time.Time
}

// ListCache holds rendered list responses for a short TTL. Writers call
// Invalidate with the key prefix they affect. A zero TTL disables it.
type ListCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]cacheItem
	now   func() time.Time
}

func NewListCache(ttl time.Duration) *ListCache {
	return &ListCache{ttl: ttl, items: make(map[string]cacheItem), now: time.Now}
}

func (c *ListCache) TTL() time.Duration {
	return c.ttl
}

func (c *ListCache) Get(key string) (any, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || c.now().After(item.Expires) {
		return nil, false
	}
	return item.Value, true
}

func (c *ListCache) Set(key string, value any) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.items[key] = cacheItem{Value: value, Expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *ListCache) Invalidate(prefix string) {
	c.mu.Lock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}
