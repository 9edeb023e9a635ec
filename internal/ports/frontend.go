package ports

import (
	"context"

	"github.com/mikey/email-vetter/internal/core"
)

// BatchClassifier classifies lists of addresses
type BatchClassifier interface {
	// ClassifyBatch classifies at most limit addresses; limit <= 0 uses the default
	ClassifyBatch(ctx context.Context, emails []string, limit int) []core.Verdict

	// Limit returns the default batch limit
	Limit() int

	// Mode returns the classification mode
	Mode() core.Mode
}

// Frontend defines the interface for the request-facing side of the service
type Frontend interface {
	// ProcessBatch classifies a batch of addresses the way the frontend would
	ProcessBatch(ctx context.Context, emails []string) []core.Verdict

	// Start starts the frontend
	Start() error

	// Stop stops the frontend
	Stop() error

	// Done is closed once the frontend has nothing left to serve
	Done() <-chan struct{}
}
