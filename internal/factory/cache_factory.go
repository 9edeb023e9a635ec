package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/email-vetter/internal/adapters/cache"
	"github.com/mikey/email-vetter/internal/config"
	"github.com/mikey/email-vetter/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates cache repositories based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCacheRepository creates a cache repository based on the configuration.
// It returns nil when caching is disabled or the classifier runs in fast
// mode, which never touches the network.
func (f *CacheFactory) CreateCacheRepository() (core.CacheRepository, error) {
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}
	mode, err := core.ParseMode(f.cfg.GetString("vetting.mode"))
	if err != nil {
		return nil, err
	}
	if !cacheCfg.Enabled || mode != core.ModeDeep {
		f.logger.Debug("Verdict cache disabled")
		return nil, nil
	}

	f.logger.Info("Creating verdict cache",
		zap.String("type", cacheCfg.Type),
		zap.Duration("ttl", cacheCfg.TTL))

	switch cacheCfg.Type {
	case "memory":
		return cache.NewMemoryCache(f.logger, cacheCfg.CleanupFrequency), nil
	case "sqlite":
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(cacheCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(cacheCfg.SQLitePath, f.logger, cacheCfg.CleanupFrequency)
	case "mysql":
		return cache.NewMySQLCache(cacheCfg.MySQLDSN, f.logger, cacheCfg.CleanupFrequency)
	case "redis":
		return cache.NewRedisCache(cacheCfg.RedisAddr, cacheCfg.RedisPassword, cacheCfg.RedisDB, f.logger)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
}
