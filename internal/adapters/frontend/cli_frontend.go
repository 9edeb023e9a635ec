package frontend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/mikey/email-vetter/internal/core"
	"github.com/mikey/email-vetter/internal/ports"
	"github.com/mikey/email-vetter/internal/utils"
	"go.uber.org/zap"
)

// CLIFrontend classifies a list of addresses read from a stream and writes
// the verdicts as a JSON array
type CLIFrontend struct {
	runner ports.BatchClassifier
	logger *zap.Logger
	text   *utils.TextProcessor
	in     io.Reader
	out    io.Writer
	pretty bool

	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once
	mu       sync.Mutex
	err      error
}

// NewCLIFrontend creates a new CLI frontend
func NewCLIFrontend(
	runner ports.BatchClassifier,
	logger *zap.Logger,
	text *utils.TextProcessor,
	in io.Reader,
	out io.Writer,
	pretty bool,
) *CLIFrontend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if text == nil {
		text = utils.NewTextProcessor(logger, 0)
	}
	return &CLIFrontend{
		runner: runner,
		logger: logger,
		text:   text,
		in:     in,
		out:    out,
		pretty: pretty,
		done:   make(chan struct{}),
	}
}

// ReadEmails reads one address per line, skipping blanks and comments.
// An input that is an io.Closer is closed once it has been read.
func (f *CLIFrontend) ReadEmails() ([]string, error) {
	if closer, ok := f.in.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				f.logger.Debug("Failed to close input", zap.Error(err))
			}
		}()
	}

	var emails []string
	scanner := bufio.NewScanner(f.in)
	for scanner.Scan() {
		if email, ok := f.text.ParseLine(scanner.Text()); ok {
			emails = append(emails, email)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return emails, nil
}

// ProcessBatch classifies every address, one runner batch at a time, so
// that long lists are not cut off at the batch limit
func (f *CLIFrontend) ProcessBatch(ctx context.Context, emails []string) []core.Verdict {
	limit := f.runner.Limit()
	if limit <= 0 {
		limit = max(len(emails), 1)
	}
	verdicts := make([]core.Verdict, 0, len(emails))
	for start := 0; start < len(emails); start += limit {
		end := min(start+limit, len(emails))
		verdicts = append(verdicts, f.runner.ClassifyBatch(ctx, emails[start:end], limit)...)
	}
	return verdicts
}

// Run reads the input, classifies it and writes the verdicts
func (f *CLIFrontend) Run(ctx context.Context) error {
	emails, err := f.ReadEmails()
	if err != nil {
		return err
	}

	f.logger.Debug("Read addresses from input", zap.Int("count", len(emails)))

	return f.Write(f.ProcessBatch(ctx, emails))
}

// Write encodes verdicts as a JSON array
func (f *CLIFrontend) Write(verdicts []core.Verdict) error {
	enc := json.NewEncoder(f.out)
	if f.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(verdicts); err != nil {
		return fmt.Errorf("failed to write verdicts: %w", err)
	}
	return nil
}

// Start runs the frontend in the background; Done is closed when it finishes
func (f *CLIFrontend) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel

	go func() {
		defer f.doneOnce.Do(func() { close(f.done) })
		if err := f.Run(ctx); err != nil {
			f.logger.Error("CLI frontend failed", zap.Error(err))
			f.mu.Lock()
			f.err = err
			f.mu.Unlock()
		}
	}()

	return nil
}

// Stop cancels any in-flight classification
func (f *CLIFrontend) Stop() error {
	if f.cancel != nil {
		f.cancel()
	}
	return nil
}

// Done is closed once the input has been processed
func (f *CLIFrontend) Done() <-chan struct{} {
	return f.done
}

// Err returns the error that ended a background run, if any
func (f *CLIFrontend) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
