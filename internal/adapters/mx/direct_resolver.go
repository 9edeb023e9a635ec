package mx

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"
	"github.com/mikey/email-vetter/internal/core"
	"go.uber.org/zap"
)

const resolvConfPath = "/etc/resolv.conf"

// DirectResolver queries nameservers directly so that NXDOMAIN can be told
// apart from a domain that exists without MX records
type DirectResolver struct {
	client    *dns.Client
	tcpClient *dns.Client
	servers   []string
	logger    *zap.Logger
}

// NewDirectResolver creates a resolver for the given nameservers. Servers
// without a port use 53.
func NewDirectResolver(servers []string, logger *zap.Logger) (*DirectResolver, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("at least one nameserver is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	addrs := make([]string, 0, len(servers))
	for _, server := range servers {
		server = strings.TrimSpace(server)
		if server == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(server); err != nil {
			server = net.JoinHostPort(server, "53")
		}
		addrs = append(addrs, server)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("at least one nameserver is required")
	}

	return &DirectResolver{
		client:    &dns.Client{Net: "udp"},
		tcpClient: &dns.Client{Net: "tcp"},
		servers:   addrs,
		logger:    logger,
	}, nil
}

// SystemNameservers reads the nameservers listed in /etc/resolv.conf
func SystemNameservers() ([]string, error) {
	conf, err := dns.ClientConfigFromFile(resolvConfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", resolvConfPath, err)
	}
	servers := make([]string, 0, len(conf.Servers))
	for _, server := range conf.Servers {
		servers = append(servers, net.JoinHostPort(server, conf.Port))
	}
	return servers, nil
}

// Servers returns the nameserver addresses in query order
func (r *DirectResolver) Servers() []string {
	return r.servers
}

// ResolveMX implements core.MXResolver. Servers are tried in order until one
// gives an authoritative answer or the context expires.
func (r *DirectResolver) ResolveMX(ctx context.Context, domain string) ([]core.MXRecord, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		if ctx.Err() != nil {
			break
		}

		resp, err := r.exchange(ctx, msg, server)
		if err != nil {
			r.logger.Debug("MX query failed",
				zap.String("domain", domain),
				zap.String("server", server),
				zap.Error(err))
			lastErr = err
			continue
		}

		switch resp.Rcode {
		case dns.RcodeSuccess:
			return r.collect(domain, resp)
		case dns.RcodeNameError:
			return nil, fmt.Errorf("%w: %s: NXDOMAIN", core.ErrLookupFailed, domain)
		default:
			lastErr = fmt.Errorf("server %s answered %s", server, dns.RcodeToString[resp.Rcode])
		}
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return nil, classifyLookupError(ctx, domain, lastErr)
}

// exchange sends the query over UDP and retries over TCP when the answer
// was truncated
func (r *DirectResolver) exchange(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
	resp, _, err := r.client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		resp, _, err = r.tcpClient.ExchangeContext(ctx, msg, server)
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (r *DirectResolver) collect(domain string, resp *dns.Msg) ([]core.MXRecord, error) {
	records := make([]core.MXRecord, 0, len(resp.Answer))
	for _, rr := range resp.Answer {
		mx, ok := rr.(*dns.MX)
		if !ok {
			continue
		}
		// A null MX (RFC 7505) declares that the domain accepts no mail
		if mx.Mx == "." || mx.Mx == "" {
			continue
		}
		records = append(records, core.MXRecord{Host: mx.Mx, Priority: mx.Preference})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrNoRecords, domain)
	}

	r.logger.Debug("Resolved MX records",
		zap.String("domain", domain),
		zap.Int("count", len(records)))

	return sortRecords(records), nil
}
