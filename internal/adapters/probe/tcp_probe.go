// Package probe implements connect-only SMTP reachability probes.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/mikey/email-vetter/internal/core"
	"go.uber.org/zap"
)

// DefaultPort is the SMTP port probed when none is configured
const DefaultPort = 25

// DialFunc opens a connection. It matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// TCPProbe checks whether a mail exchanger accepts TCP connections on the
// SMTP port. No SMTP command is ever sent.
type TCPProbe struct {
	port   int
	dial   DialFunc
	logger *zap.Logger
}

// NewTCPProbe creates a probe that dials with a default net.Dialer
func NewTCPProbe(port int, logger *zap.Logger) *TCPProbe {
	var dialer net.Dialer
	return NewTCPProbeWithDialer(port, dialer.DialContext, logger)
}

// NewTCPProbeWithDialer creates a probe with a custom dial function
func NewTCPProbeWithDialer(port int, dial DialFunc, logger *zap.Logger) *TCPProbe {
	if port <= 0 {
		port = DefaultPort
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TCPProbe{
		port:   port,
		dial:   dial,
		logger: logger,
	}
}

// Probe implements core.SMTPProber. The connection is closed as soon as it
// is established.
func (p *TCPProbe) Probe(ctx context.Context, host string) core.ProbeResult {
	addr := net.JoinHostPort(host, strconv.Itoa(p.port))

	conn, err := p.dial(ctx, "tcp", addr)
	if err != nil {
		err = p.classify(ctx, addr, err)
		p.logger.Debug("SMTP probe failed", zap.String("address", addr), zap.Error(err))

		if errors.Is(err, core.ErrConnectTimeout) {
			return core.ProbeResult{Reachable: false, Code: core.ProbeTimeout}
		}
		return core.ProbeResult{Reachable: false, Code: core.ProbeError}
	}

	if cerr := conn.Close(); cerr != nil {
		p.logger.Debug("Failed to close probe connection", zap.String("address", addr), zap.Error(cerr))
	}

	p.logger.Debug("SMTP probe connected", zap.String("address", addr))
	return core.ProbeResult{Reachable: true, Code: core.ProbeConnect}
}

func (p *TCPProbe) classify(ctx context.Context, addr string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", core.ErrConnectTimeout, addr, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %w", core.ErrConnectTimeout, addr, err)
	}
	return fmt.Errorf("%w: %s: %w", core.ErrConnectFailed, addr, err)
}
