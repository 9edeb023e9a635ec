package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/email-vetter/internal/core"
	"github.com/mikey/email-vetter/internal/di"
	"github.com/mikey/email-vetter/internal/ports"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	frontend ports.Frontend,
	runner ports.BatchClassifier,
	cacheRepo core.CacheRepository,
) error {
	defer logger.Sync()

	logger.Info("Starting email vetter",
		zap.String("mode", string(runner.Mode())),
		zap.Int("limit", runner.Limit()))

	// Start the frontend
	if err := frontend.Start(); err != nil {
		logger.Error("Failed to start frontend", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	case <-frontend.Done():
		logger.Info("Frontend finished, shutting down...")
	}

	// Stop the frontend
	if err := frontend.Stop(); err != nil {
		logger.Error("Failed to stop frontend", zap.Error(err))
	}

	// Stop the cache if needed
	if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	// Surface the error of a frontend that ended on its own
	if reporter, ok := frontend.(interface{ Err() error }); ok {
		if err := reporter.Err(); err != nil {
			return err
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
