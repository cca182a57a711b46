package resultcache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/chunkgpt/internal/domain/summarizer"
)

type entry struct {
	payload   summarizer.Response
	expiresAt time.Time
}

// MemoryCache is an in-memory result cache for tests/dev.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryCache constructs a cache backed by process memory.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get implements summarizer.ResultCache.
func (c *MemoryCache) Get(_ context.Context, key string) (summarizer.Response, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return summarizer.Response{}, false, nil
	}
	if !e.expiresAt.IsZero() && e.expiresAt.Before(c.now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return summarizer.Response{}, false, nil
	}
	return e.payload, true, nil
}

// Save caches resp with an optional TTL.
func (c *MemoryCache) Save(_ context.Context, key string, resp summarizer.Response, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := time.Time{}
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.entries[key] = entry{payload: resp, expiresAt: exp}
	return nil
}

var _ summarizer.ResultCache = (*MemoryCache)(nil)
