package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/email-vetter/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "verdict:"

// RedisCache is a Redis implementation of the CacheRepository interface.
// Expiry is delegated to Redis key TTLs.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(addr, password string, db int, logger *zap.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, logger: logger}, nil
}

type redisEntry struct {
	Verdict  core.Verdict `json:"verdict"`
	CachedAt time.Time    `json:"cachedAt"`
	Expires  time.Time    `json:"expiresAt"`
}

// Get retrieves a cached entry for an address
func (c *RedisCache) Get(ctx context.Context, email string) (*core.CacheEntry, error) {
	val, err := c.client.Get(ctx, redisKeyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	var stored redisEntry
	if err := json.Unmarshal(val, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cached verdict: %w", err)
	}

	return &core.CacheEntry{
		Email:     email,
		Verdict:   stored.Verdict,
		CachedAt:  stored.CachedAt,
		ExpiresAt: stored.Expires,
	}, nil
}

// Set stores a cache entry with a TTL matching its expiry
func (c *RedisCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	if entry == nil {
		return errors.New("nil cache entry")
	}

	ttl := time.Until(entry.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(redisEntry{
		Verdict:  entry.Verdict,
		CachedAt: entry.CachedAt,
		Expires:  entry.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}

	if err := c.client.Set(ctx, redisKeyPrefix+entry.Email, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *RedisCache) Delete(ctx context.Context, email string) error {
	if err := c.client.Del(ctx, redisKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup is a no-op; Redis expires keys itself
func (c *RedisCache) Cleanup(ctx context.Context) error {
	return nil
}

// Stop closes the Redis client
func (c *RedisCache) Stop() {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis client", zap.Error(err))
	}
}
