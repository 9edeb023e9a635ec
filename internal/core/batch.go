package core

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/email-vetter/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchRunner classifies lists of addresses with bounded concurrency
type BatchRunner struct {
	classifier   Classifier
	logger       *zap.Logger
	mode         Mode
	limit        int
	concurrency  int
	batchTimeout time.Duration
}

// NewBatchRunner creates a new batch runner
func NewBatchRunner(classifier *EmailClassifier, logger *zap.Logger, opts Options) (*BatchRunner, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	opts.Mode = classifier.Mode()
	return newBatchRunner(classifier, logger, opts)
}

func newBatchRunner(classifier Classifier, logger *zap.Logger, opts Options) (*BatchRunner, error) {
	opts, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BatchRunner{
		classifier:   classifier,
		logger:       logger,
		mode:         opts.Mode,
		limit:        opts.EffectiveLimit(),
		concurrency:  opts.Concurrency,
		batchTimeout: opts.BatchTimeout,
	}, nil
}

// Limit returns the default number of addresses classified per batch
func (b *BatchRunner) Limit() int {
	return b.limit
}

// Mode returns the mode the runner was configured for
func (b *BatchRunner) Mode() Mode {
	return b.mode
}

// ClassifyBatch classifies at most limit addresses and returns their
// verdicts in input order. A limit of zero or less uses the configured
// limit. A failure on one address never affects the others.
func (b *BatchRunner) ClassifyBatch(ctx context.Context, emails []string, limit int) []Verdict {
	if limit <= 0 {
		limit = b.limit
	}
	n := min(len(emails), limit)
	results := make([]Verdict, n)
	if n == 0 {
		return results
	}

	if b.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.batchTimeout)
		defer cancel()
	}

	start := time.Now()

	// Each goroutine writes only its own slot, so no locking is needed
	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			results[i] = b.classifyOne(ctx, emails[i])
			return nil
		})
	}
	_ = g.Wait()

	metrics.RecordBatch(n)
	b.logger.Info("Classified batch",
		zap.Int("received", len(emails)),
		zap.Int("classified", n),
		zap.Int("concurrency", b.concurrency),
		zap.Duration("took", time.Since(start)))

	return results
}

func (b *BatchRunner) classifyOne(ctx context.Context, raw string) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordPanic()
			b.logger.Error("Recovered from panic in batch item", zap.Any("panic", r))
			verdict = invalidVerdict(Normalize(raw), ReasonInternal)
		}
	}()
	return b.classifier.Classify(ctx, raw)
}
