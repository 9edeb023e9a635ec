package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/email-vetter/internal/core"
	"go.uber.org/zap"
)

// sqlStore holds the queries shared by the SQL-backed caches. Timestamps
// are stored as unix seconds so expiry comparisons are dialect independent.
type sqlStore struct {
	db          *sql.DB
	logger      *zap.Logger
	upsertQuery string
}

func (s *sqlStore) get(ctx context.Context, email string) (*core.CacheEntry, error) {
	var payload []byte
	var cachedAt, expiresAt int64

	err := s.db.QueryRowContext(ctx, `
		SELECT verdict, cached_at, expires_at
		FROM verdict_cache
		WHERE email = ? AND expires_at > ?
	`, email, time.Now().Unix()).Scan(&payload, &cachedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	entry := &core.CacheEntry{
		Email:     email,
		CachedAt:  time.Unix(cachedAt, 0),
		ExpiresAt: time.Unix(expiresAt, 0),
	}
	if err := json.Unmarshal(payload, &entry.Verdict); err != nil {
		return nil, fmt.Errorf("failed to decode cached verdict: %w", err)
	}

	return entry, nil
}

func (s *sqlStore) set(ctx context.Context, entry *core.CacheEntry) error {
	if entry == nil {
		return errors.New("nil cache entry")
	}

	payload, err := json.Marshal(entry.Verdict)
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.upsertQuery,
		entry.Email, payload, entry.CachedAt.Unix(), entry.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

func (s *sqlStore) delete(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM verdict_cache
		WHERE email = ?
	`, email)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

func (s *sqlStore) cleanup(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM verdict_cache
		WHERE expires_at <= ?
	`, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		s.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}
