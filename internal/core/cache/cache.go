// Package cache stores extraction results keyed by the content hash of the
// uploaded document, so re-uploads of the same file skip the model entirely.
package cache

import (
	"context"
	"sync"
	"time"

	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// Cache is the extraction result cache. Put is insert-only: a key already
// present keeps its first value, so concurrent scans of the same document
// converge on one result.
type Cache interface {
	Get(ctx context.Context, key string) (*recipe.Recipe, error)
	Put(ctx context.Context, key string, r *recipe.Recipe) error
	Close() error
}

type memoryEntry struct {
	recipe    *recipe.Recipe
	createdAt time.Time
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an in-process Cache with optional TTL and a size cap. When
// the cap is reached the oldest entry is evicted.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	maxSize int
	ttl     time.Duration
	stopCh  chan struct{}
	stopped sync.Once
}

// NewMemoryCache creates a MemoryCache. ttl of 0 disables expiry; the cleanup
// goroutine runs only when both ttl and cleanupInterval are positive.
func NewMemoryCache(maxSize int, ttl, cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		maxSize: maxSize,
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	if ttl > 0 && cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}

	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) (*recipe.Recipe, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.expired(time.Now()) {
		return nil, common.ErrCacheMiss
	}
	return entry.recipe, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, r *recipe.Recipe) error {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok && !existing.expired(now) {
		return nil
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	entry := &memoryEntry{recipe: r, createdAt: now}
	if c.ttl > 0 {
		entry.expiresAt = now.Add(c.ttl)
	}
	c.entries[key] = entry
	return nil
}

// evictOldest removes the entry with the earliest creation time. Caller holds
// the write lock.
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.createdAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *MemoryCache) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		common.LogDebug("cache cleanup removed expired entries", zap.Int("removed", removed))
	}
}

// Len reports the number of entries, expired included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) Close() error {
	c.stopped.Do(func() { close(c.stopCh) })
	return nil
}
