package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mikey/email-vetter/internal/metrics"
	"github.com/mikey/email-vetter/internal/reputation"
	"go.uber.org/zap"
)

// EmailClassifier is the core service for address vetting
type EmailClassifier struct {
	table         *reputation.Table
	resolver      MXResolver
	prober        SMTPProber
	cache         CacheRepository
	logger        *zap.Logger
	mode          Mode
	lookupTimeout time.Duration
	probeTimeout  time.Duration
	cacheEnabled  bool
	cacheTTL      time.Duration
}

// NewEmailClassifier creates a new classifier. The resolver and prober are
// only required in deep mode; the cache may be nil.
func NewEmailClassifier(
	table *reputation.Table,
	resolver MXResolver,
	prober SMTPProber,
	cache CacheRepository,
	logger *zap.Logger,
	opts Options,
) (*EmailClassifier, error) {
	opts, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("reputation table is required")
	}
	if opts.Mode == ModeDeep && (resolver == nil || prober == nil) {
		return nil, fmt.Errorf("deep mode requires an MX resolver and an SMTP prober")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EmailClassifier{
		table:         table,
		resolver:      resolver,
		prober:        prober,
		cache:         cache,
		logger:        logger,
		mode:          opts.Mode,
		lookupTimeout: opts.LookupTimeout,
		probeTimeout:  opts.ProbeTimeout,
		cacheEnabled:  opts.CacheEnabled && cache != nil,
		cacheTTL:      opts.CacheTTL,
	}, nil
}

// Mode returns the operating mode of the classifier
func (c *EmailClassifier) Mode() Mode {
	return c.mode
}

// Classify returns the verdict for a raw address. It never panics; any
// unexpected failure yields an invalid verdict.
func (c *EmailClassifier) Classify(ctx context.Context, raw string) (verdict Verdict) {
	email := Normalize(raw)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordPanic()
			c.logger.Error("Recovered from panic during classification",
				zap.String("email", email),
				zap.Error(fmt.Errorf("%w: %v", ErrInternal, r)))
			verdict = invalidVerdict(email, ReasonInternal)
		}
		metrics.RecordVerdict(string(c.mode), string(verdict.Status), verdict.Reason, time.Since(start))
	}()

	verdict = c.classify(ctx, email)

	c.logger.Debug("Classified address",
		zap.String("email", verdict.Email),
		zap.String("status", string(verdict.Status)),
		zap.String("reason", verdict.Reason),
		zap.Duration("took", time.Since(start)))

	return verdict
}

// classify runs the decision chain; the first matching stage wins
func (c *EmailClassifier) classify(ctx context.Context, email string) Verdict {
	if email == "" {
		c.logger.Debug("Rejected address", zap.Error(ErrInvalidInput))
		return invalidVerdict(email, ReasonEmptyInput)
	}

	if !IsValidSyntax(email) {
		c.logger.Debug("Rejected address", zap.String("email", email), zap.Error(ErrSyntax))
		return invalidVerdict(email, ReasonInvalidFormat)
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return invalidVerdict(email, ReasonMalformed)
	}
	local, domain := parts[0], parts[1]

	// Disposable domains are rejected before any network work in both modes
	if c.table.Classify(domain) == reputation.Disposable {
		return Verdict{
			Email:      email,
			Status:     StatusRisky,
			Reason:     ReasonDisposable,
			Disposable: true,
		}
	}

	if c.mode == ModeDeep {
		return c.verifyCached(ctx, email, domain)
	}
	return c.classifyOffline(email, local, domain)
}

// classifyOffline applies the fast-mode heuristics. The smtp and mx flags
// it sets are optimistic placeholders, not observations.
func (c *EmailClassifier) classifyOffline(email, local, domain string) Verdict {
	switch {
	case c.table.Classify(domain) == reputation.Trusted:
		return Verdict{
			Email:         email,
			Status:        StatusValid,
			Reason:        ReasonTrusted,
			SMTPReachable: true,
			MXPresent:     true,
			Trusted:       true,
		}
	case c.table.IsSuspicious(local):
		return Verdict{
			Email:      email,
			Status:     StatusRisky,
			Reason:     ReasonSuspicious,
			Suspicious: true,
		}
	default:
		return Verdict{
			Email:         email,
			Status:        StatusValid,
			Reason:        ReasonProbablyValid,
			SMTPReachable: true,
			MXPresent:     true,
		}
	}
}

// verifyCached wraps network verification with the verdict cache
func (c *EmailClassifier) verifyCached(ctx context.Context, email, domain string) Verdict {
	if c.cacheEnabled {
		entry, err := c.cache.Get(ctx, email)
		if err == nil && entry != nil {
			metrics.RecordCacheLookup(true)
			c.logger.Debug("Cache hit for address", zap.String("email", email))
			return entry.Verdict
		}
		metrics.RecordCacheLookup(false)
	}

	verdict, cacheable := c.verifyNetwork(ctx, email, domain)

	if c.cacheEnabled && cacheable {
		now := time.Now()
		entry := &CacheEntry{
			Email:     email,
			Verdict:   verdict,
			CachedAt:  now,
			ExpiresAt: now.Add(c.cacheTTL),
		}
		if err := c.cache.Set(ctx, entry); err != nil {
			c.logger.Error("Failed to update cache", zap.String("email", email), zap.Error(err))
		}
	}

	return verdict
}

// verifyNetwork resolves the domain's MX records and probes the primary
// exchanger. The second return value is false for outcomes caused by a
// deadline or a cancelled caller, which are not worth caching.
func (c *EmailClassifier) verifyNetwork(ctx context.Context, email, domain string) (Verdict, bool) {
	lookupCtx, cancel := context.WithTimeout(ctx, c.lookupTimeout)
	records, err := c.resolver.ResolveMX(lookupCtx, domain)
	cancel()

	if err == nil && len(records) == 0 {
		err = fmt.Errorf("%w: %s", ErrNoRecords, domain)
	}
	if err != nil {
		c.logger.Debug("MX resolution failed",
			zap.String("email", email),
			zap.String("domain", domain),
			zap.Error(err))

		switch {
		case errors.Is(err, ErrNoRecords):
			metrics.RecordMXLookup("no_records")
			return invalidVerdict(email, ReasonNoMailServer), true
		case errors.Is(err, ErrLookupTimeout):
			metrics.RecordMXLookup("timeout")
			return invalidVerdict(email, ReasonDomainMissing), false
		default:
			metrics.RecordMXLookup("error")
			return invalidVerdict(email, ReasonDomainMissing), ctx.Err() == nil
		}
	}
	metrics.RecordMXLookup("ok")

	primary := primaryMX(records)

	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	result := c.prober.Probe(probeCtx, primary.Host)
	cancel()
	metrics.RecordProbe(string(result.Code))

	verdict := Verdict{
		Email:         email,
		SMTPReachable: result.Reachable,
		MXPresent:     true,
		MXHost:        primary.Host,
		SMTPProbeCode: result.Code,
	}

	switch {
	case result.Reachable:
		verdict.Status = StatusValid
		verdict.Reason = ReasonSMTPReachable
	case result.Code == ProbeTimeout:
		verdict.Status = StatusInvalid
		verdict.Reason = ReasonSMTPTimeout
		return verdict, false
	default:
		verdict.Status = StatusInvalid
		verdict.Reason = ReasonSMTPUnreachable
		verdict.SMTPProbeCode = ProbeError
		// A dial aborted by the caller says nothing about the exchanger
		return verdict, ctx.Err() == nil
	}

	return verdict, true
}

// primaryMX returns the record with the lowest priority value. Ties keep
// the resolver's order.
func primaryMX(records []MXRecord) MXRecord {
	sorted := make([]MXRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted[0]
}
