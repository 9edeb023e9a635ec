package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/email-vetter/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the CacheRepository interface
type SQLiteCache struct {
	store    *sqlStore
	db       *sql.DB
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// A single connection keeps ":memory:" databases consistent across queries
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdict_cache (
			email TEXT PRIMARY KEY,
			verdict BLOB NOT NULL,
			cached_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_verdict_expires_at ON verdict_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		store: &sqlStore{
			db:     db,
			logger: logger,
			upsertQuery: `
				INSERT OR REPLACE INTO verdict_cache (email, verdict, cached_at, expires_at)
				VALUES (?, ?, ?, ?)
			`,
		},
		db:     db,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go startCleanupTask(cache, logger, cleanupFreq, cache.stopCh)
	}

	return cache, nil
}

// Get retrieves a cached entry for an address
func (c *SQLiteCache) Get(ctx context.Context, email string) (*core.CacheEntry, error) {
	return c.store.get(ctx, email)
}

// Set stores a cache entry
func (c *SQLiteCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	return c.store.set(ctx, entry)
}

// Delete removes a cache entry
func (c *SQLiteCache) Delete(ctx context.Context, email string) error {
	return c.store.delete(ctx, email)
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	return c.store.cleanup(ctx)
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLiteCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close SQLite database", zap.Error(err))
		}
	})
}
