package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/email-vetter/internal/config"
	"github.com/mikey/email-vetter/internal/core"
	"github.com/mikey/email-vetter/internal/di"
	"github.com/mikey/email-vetter/internal/ports"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	listenAddress string
	serveMode     string
	bodyGuard     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP validation endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadServeConfig()
		if err != nil {
			return err
		}

		container, err := di.BuildContainerWithConfig(cfg)
		if err != nil {
			return fmt.Errorf("failed to build dependency container: %w", err)
		}
		return container.Invoke(serve)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddress, "listen", "", "Override the listen address (e.g. --listen :8080)")
	serveCmd.Flags().StringVarP(&serveMode, "mode", "m", "", "Override the classification mode (fast, deep)")
	serveCmd.Flags().StringVar(&bodyGuard, "body-guard", "", "Override the request body guard (strict, lenient)")
}

func loadServeConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.NewFromFile(configPath)
	} else {
		cfg, err = config.New()
	}
	if err != nil {
		return nil, err
	}

	// Apply flag overrides
	cfg.Set("server.frontend_type", "http")
	if listenAddress != "" {
		cfg.Set("server.listen_address", listenAddress)
	}
	if serveMode != "" {
		cfg.Set("vetting.mode", serveMode)
	}
	if bodyGuard != "" {
		cfg.Set("server.body_guard", bodyGuard)
	}
	if verbose {
		cfg.Set("logging.level", "debug")
	}
	if jsonLog {
		cfg.Set("logging.format", "json")
	}
	return cfg, nil
}

func serve(logger *zap.Logger, frontend ports.Frontend, cacheRepo core.CacheRepository) error {
	defer logger.Sync()

	if err := frontend.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		logger.Info("Shutting down...")
	case <-frontend.Done():
	}

	if err := frontend.Stop(); err != nil {
		logger.Error("Failed to stop frontend", zap.Error(err))
	}
	if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	return nil
}
