package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mikey/email-vetter/internal/core"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a cache entry is missing or expired
var ErrNotFound = errors.New("cache entry not found")

// MemoryCache is an in-memory implementation of the CacheRepository interface
type MemoryCache struct {
	entries     map[string]*core.CacheEntry
	mu          sync.RWMutex
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

// NewMemoryCache creates a new in-memory cache. A cleanup frequency of zero
// disables the background sweep.
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache := &MemoryCache{
		entries:     make(map[string]*core.CacheEntry),
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	if cleanupFreq > 0 {
		go startCleanupTask(cache, logger, cleanupFreq, cache.stopCh)
	}

	return cache
}

// Get retrieves a cached entry for an address
func (c *MemoryCache) Get(ctx context.Context, email string) (*core.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[email]
	if !ok || entry.Expired(c.now()) {
		return nil, ErrNotFound
	}

	copied := *entry
	return &copied, nil
}

// Set stores a cache entry
func (c *MemoryCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	if entry == nil {
		return errors.New("nil cache entry")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	copied := *entry
	c.entries[entry.Email] = &copied
	return nil
}

// Delete removes a cache entry
func (c *MemoryCache) Delete(ctx context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, email)
	return nil
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0

	for key, entry := range c.entries {
		if entry.Expired(now) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// Len returns the number of stored entries, expired or not
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
