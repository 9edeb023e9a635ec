package factory

import (
	"fmt"

	"github.com/mikey/email-vetter/internal/config"
	"github.com/mikey/email-vetter/internal/reputation"
	"go.uber.org/zap"
)

// ReputationFactory builds the domain reputation table
type ReputationFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewReputationFactory creates a new reputation factory
func NewReputationFactory(cfg *config.Config, logger *zap.Logger) *ReputationFactory {
	return &ReputationFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTable builds the immutable reputation table, merging the optional
// disposable list file into the configured disposable domains
func (f *ReputationFactory) CreateTable() (*reputation.Table, error) {
	repCfg := f.cfg.GetReputation()

	disposable := append([]string{}, repCfg.DisposableDomains...)
	if repCfg.DisposableFile != "" {
		extra, err := reputation.LoadDomainFile(repCfg.DisposableFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load disposable list: %w", err)
		}
		f.logger.Info("Loaded disposable domain list",
			zap.String("file", repCfg.DisposableFile),
			zap.Int("domains", len(extra)))
		disposable = append(disposable, extra...)
	}

	return reputation.NewTable(reputation.Lists{
		Disposable:         disposable,
		Trusted:            repCfg.TrustedDomains,
		Allowlist:          repCfg.Allowlist,
		SuspiciousPatterns: repCfg.SuspiciousPatterns,
	}, f.logger), nil
}
