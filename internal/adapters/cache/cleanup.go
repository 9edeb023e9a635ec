package cache

import (
	"context"
	"time"

	"github.com/mikey/email-vetter/internal/core"
	"go.uber.org/zap"
)

// startCleanupTask periodically removes expired entries until stopCh closes
func startCleanupTask(repo core.CacheRepository, logger *zap.Logger, freq time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := repo.Cleanup(context.Background()); err != nil {
				logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-stopCh:
			return
		}
	}
}
