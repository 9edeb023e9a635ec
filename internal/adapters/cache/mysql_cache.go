package cache

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/email-vetter/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the CacheRepository interface
type MySQLCache struct {
	store    *sqlStore
	db       *sql.DB
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdict_cache (
			email VARCHAR(320) PRIMARY KEY,
			verdict BLOB NOT NULL,
			cached_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			INDEX idx_verdict_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		store: &sqlStore{
			db:     db,
			logger: logger,
			upsertQuery: `
				INSERT INTO verdict_cache (email, verdict, cached_at, expires_at)
				VALUES (?, ?, ?, ?)
				ON DUPLICATE KEY UPDATE
					verdict = VALUES(verdict),
					cached_at = VALUES(cached_at),
					expires_at = VALUES(expires_at)
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
func (c *MySQLCache) Get(ctx context.Context, email string) (*core.CacheEntry, error) {
	return c.store.get(ctx, email)
}

// Set stores a cache entry
func (c *MySQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	return c.store.set(ctx, entry)
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, email string) error {
	return c.store.delete(ctx, email)
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	return c.store.cleanup(ctx)
}

// Stop stops the background cleanup task and closes the database connection
func (c *MySQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close MySQL database", zap.Error(err))
		}
	})
}
