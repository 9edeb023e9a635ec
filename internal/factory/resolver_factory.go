package factory

import (
	"fmt"

	"github.com/mikey/email-vetter/internal/adapters/mx"
	"github.com/mikey/email-vetter/internal/adapters/probe"
	"github.com/mikey/email-vetter/internal/config"
	"github.com/mikey/email-vetter/internal/core"
	"go.uber.org/zap"
)

// NetworkFactory creates the MX resolver and SMTP prober used in deep mode
type NetworkFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNetworkFactory creates a new network factory
func NewNetworkFactory(cfg *config.Config, logger *zap.Logger) *NetworkFactory {
	return &NetworkFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateResolver creates an MX resolver based on the configuration
func (f *NetworkFactory) CreateResolver() (core.MXResolver, error) {
	dnsCfg, err := f.cfg.GetDNS()
	if err != nil {
		return nil, fmt.Errorf("invalid dns configuration: %w", err)
	}

	switch dnsCfg.Resolver {
	case "system":
		return mx.NewSystemResolver(f.logger), nil
	case "direct":
		servers := dnsCfg.Nameservers
		if len(servers) == 0 {
			servers, err = mx.SystemNameservers()
			if err != nil {
				f.logger.Warn("No nameservers available, falling back to the system resolver", zap.Error(err))
				return mx.NewSystemResolver(f.logger), nil
			}
		}
		resolver, err := mx.NewDirectResolver(servers, f.logger)
		if err != nil {
			return nil, err
		}
		f.logger.Info("Using direct MX resolver", zap.Strings("nameservers", resolver.Servers()))
		return resolver, nil
	default:
		return nil, fmt.Errorf("unsupported resolver type: %s", dnsCfg.Resolver)
	}
}

// CreateProber creates an SMTP reachability prober
func (f *NetworkFactory) CreateProber() (core.SMTPProber, error) {
	probeCfg, err := f.cfg.GetProbe()
	if err != nil {
		return nil, fmt.Errorf("invalid probe configuration: %w", err)
	}
	if probeCfg.Port < 0 || probeCfg.Port > 65535 {
		return nil, fmt.Errorf("invalid probe port: %d", probeCfg.Port)
	}
	return probe.NewTCPProbe(probeCfg.Port, f.logger), nil
}
