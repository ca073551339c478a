package cache

import (
	"context"
	"strings"
	"sync"
)

// memoryCache is the in-process RankingCache used in development and in
// tests. It is safe for concurrent use.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string][]BaseRow
}

func NewMemoryCache() RankingCache {
	return &memoryCache{entries: make(map[string][]BaseRow)}
}

func (c *memoryCache) Get(_ context.Context, key Key) ([]BaseRow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rows, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	out := make([]BaseRow, len(rows))
	copy(out, rows)
	return out, true
}

func (c *memoryCache) Put(_ context.Context, key Key, rows []BaseRow) {
	stored := make([]BaseRow, len(rows))
	copy(stored, rows)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = stored
}

func (c *memoryCache) Invalidate(_ context.Context, templateID uint) {
	prefix := templatePrefix(templateID)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

func (c *memoryCache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]BaseRow)
}
