package factory

import (
	"fmt"
	"io"
	"os"

	"github.com/mikey/email-vetter/internal/adapters/frontend"
	"github.com/mikey/email-vetter/internal/config"
	"github.com/mikey/email-vetter/internal/ports"
	"github.com/mikey/email-vetter/internal/utils"
	"go.uber.org/zap"
)

// FrontendFactory creates frontends based on configuration
type FrontendFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	runner ports.BatchClassifier
	text   *utils.TextProcessor
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(cfg *config.Config, logger *zap.Logger, runner ports.BatchClassifier, text *utils.TextProcessor) *FrontendFactory {
	return &FrontendFactory{
		cfg:    cfg,
		logger: logger,
		runner: runner,
		text:   text,
	}
}

// CreateFrontend creates a frontend based on the configuration
func (f *FrontendFactory) CreateFrontend() (ports.Frontend, error) {
	serverCfg, err := f.cfg.GetServer()
	if err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	switch serverCfg.FrontendType {
	case "http":
		guard, err := frontend.ParseBodyGuard(serverCfg.BodyGuard)
		if err != nil {
			return nil, err
		}
		return frontend.NewHTTPFrontend(f.runner, f.logger, f.text, frontend.HTTPOptions{
			ListenAddress:  serverCfg.ListenAddress,
			BodyGuard:      guard,
			AllowedOrigins: serverCfg.AllowedOrigins,
			ReadTimeout:    serverCfg.ReadTimeout,
			WriteTimeout:   serverCfg.WriteTimeout,
			MaxBodyBytes:   serverCfg.MaxBodyBytes,
		}), nil
	case "cli":
		return frontend.NewCLIFrontend(f.runner, f.logger, f.text, io.NopCloser(os.Stdin), os.Stdout, f.cfg.GetBool("cli.pretty")), nil
	default:
		return nil, fmt.Errorf("unsupported frontend type: %s", serverCfg.FrontendType)
	}
}
