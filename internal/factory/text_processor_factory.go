package factory

import (
	"github.com/mikey/email-vetter/internal/config"
	"github.com/mikey/email-vetter/internal/utils"
	"go.uber.org/zap"
)

// TextProcessorFactory creates the text processor used to sanitize input
// lines and shorten values before they are logged
type TextProcessorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(cfg *config.Config, logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a text processor with the configured log
// preview size. Non-positive sizes fall back to the default.
func (f *TextProcessorFactory) CreateTextProcessor() *utils.TextProcessor {
	size := f.cfg.GetInt("logging.preview_size")
	if size <= 0 {
		f.logger.Debug("Using default log preview size", zap.Int("size", utils.DefaultPreviewSize))
	}
	return utils.NewTextProcessor(f.logger, size)
}
