// Package mx provides MX resolvers backed by the system resolver or by
// direct queries to configured nameservers.
package mx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/mikey/email-vetter/internal/core"
)

// sortRecords normalizes host names and orders records by ascending priority
func sortRecords(records []core.MXRecord) []core.MXRecord {
	for i := range records {
		records[i].Host = strings.ToLower(strings.TrimSuffix(records[i].Host, "."))
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Priority < records[j].Priority
	})
	return records
}

// isTimeout reports whether err was caused by a deadline
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classifyLookupError maps a resolver failure onto the core lookup errors
func classifyLookupError(ctx context.Context, domain string, err error) error {
	if isTimeout(ctx, err) {
		return fmt.Errorf("%w: %s: %w", core.ErrLookupTimeout, domain, err)
	}
	return fmt.Errorf("%w: %s: %w", core.ErrLookupFailed, domain, err)
}
