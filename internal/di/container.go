package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-vetter/internal/config"
	"github.com/mikey/email-vetter/internal/core"
	"github.com/mikey/email-vetter/internal/factory"
	"github.com/mikey/email-vetter/internal/logging"
	"github.com/mikey/email-vetter/internal/ports"
	"github.com/mikey/email-vetter/internal/reputation"
	"github.com/mikey/email-vetter/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	return buildServiceContainer(config.New)
}

// BuildContainerWithConfig creates a service container around an existing configuration
func BuildContainerWithConfig(cfg *config.Config) (*dig.Container, error) {
	return buildServiceContainer(func() *config.Config { return cfg })
}

func buildServiceContainer(configProvider interface{}) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(configProvider); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	if err := provideClassification(container); err != nil {
		return nil, err
	}

	// Register frontend
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FrontendFactory) (ports.Frontend, error) {
		return f.CreateFrontend()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideClassification registers everything between configuration and the
// batch runner. The container must already provide *config.Config,
// *zap.Logger and core.CacheRepository.
func provideClassification(container *dig.Container) error {
	// Register factories
	if err := container.Provide(factory.NewReputationFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewNetworkFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}

	// Register classifier options
	if err := container.Provide(func(cfg *config.Config) (core.Options, error) {
		return cfg.GetOptions()
	}); err != nil {
		return err
	}

	// Register reputation table
	if err := container.Provide(func(f *factory.ReputationFactory) (*reputation.Table, error) {
		return f.CreateTable()
	}); err != nil {
		return err
	}

	// Register network adapters, only needed in deep mode
	if err := container.Provide(func(f *factory.NetworkFactory, opts core.Options) (core.MXResolver, error) {
		if opts.Mode != core.ModeDeep {
			return nil, nil
		}
		return f.CreateResolver()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.NetworkFactory, opts core.Options) (core.SMTPProber, error) {
		if opts.Mode != core.ModeDeep {
			return nil, nil
		}
		return f.CreateProber()
	}); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	// Register classifier and batch runner
	if err := container.Provide(core.NewEmailClassifier); err != nil {
		return err
	}
	if err := container.Provide(core.NewBatchRunner); err != nil {
		return err
	}
	if err := container.Provide(func(runner *core.BatchRunner, logger *zap.Logger) ports.BatchClassifier {
		logger.Info("Batch runner ready",
			zap.String("mode", string(runner.Mode())),
			zap.Int("limit", runner.Limit()))
		return runner
	}); err != nil {
		return err
	}

	return nil
}
