package core

import (
	"context"
)

// MXResolver resolves the mail exchangers of a domain.
// Implementations must honour the context deadline and return records
// ordered by ascending priority value. Failures wrap ErrNoRecords,
// ErrLookupTimeout or ErrLookupFailed.
type MXResolver interface {
	ResolveMX(ctx context.Context, domain string) ([]MXRecord, error)
}

// SMTPProber tests whether a mail exchanger accepts TCP connections on
// the SMTP port. It never performs the SMTP dialogue.
type SMTPProber interface {
	Probe(ctx context.Context, host string) ProbeResult
}

// CacheRepository defines the interface for caching verdicts
type CacheRepository interface {
	// Get retrieves a cached entry for a normalized address
	Get(ctx context.Context, email string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, email string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// Classifier produces a verdict for a single raw address
type Classifier interface {
	Classify(ctx context.Context, email string) Verdict
}
