package mx

import (
	"context"
	"fmt"
	"net"

	"github.com/mikey/email-vetter/internal/core"
	"go.uber.org/zap"
)

// LookupFunc performs an MX lookup. It matches net.Resolver.LookupMX.
type LookupFunc func(ctx context.Context, domain string) ([]*net.MX, error)

// SystemResolver resolves MX records through the operating system resolver
type SystemResolver struct {
	lookup LookupFunc
	logger *zap.Logger
}

// NewSystemResolver creates a resolver backed by net.DefaultResolver
func NewSystemResolver(logger *zap.Logger) *SystemResolver {
	return NewSystemResolverWithLookup(net.DefaultResolver.LookupMX, logger)
}

// NewSystemResolverWithLookup creates a resolver with a custom lookup function
func NewSystemResolverWithLookup(lookup LookupFunc, logger *zap.Logger) *SystemResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemResolver{lookup: lookup, logger: logger}
}

// ResolveMX implements core.MXResolver
func (r *SystemResolver) ResolveMX(ctx context.Context, domain string) ([]core.MXRecord, error) {
	mxs, err := r.lookup(ctx, domain)
	if err != nil {
		// NXDOMAIN and "no such host" both surface as failed lookups here
		return nil, classifyLookupError(ctx, domain, err)
	}

	records := make([]core.MXRecord, 0, len(mxs))
	for _, mx := range mxs {
		if mx == nil || mx.Host == "" || mx.Host == "." {
			continue
		}
		records = append(records, core.MXRecord{Host: mx.Host, Priority: mx.Pref})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrNoRecords, domain)
	}

	r.logger.Debug("Resolved MX records",
		zap.String("domain", domain),
		zap.Int("count", len(records)))

	return sortRecords(records), nil
}
