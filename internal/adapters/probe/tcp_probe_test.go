package probe_test

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/email-vetter/internal/adapters/probe"
	"github.com/mikey/email-vetter/internal/core"
)

type backend struct {
	sessions atomic.Int32
}

func (b *backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	b.sessions.Add(1)
	return &session{}, nil
}

type session struct{}

func (s *session) Reset()                                   {}
func (s *session) Logout() error                            { return nil }
func (s *session) AuthPlain(_ []byte) error                 { return nil }
func (s *session) Mail(_ string, _ *smtp.MailOptions) error { return nil }
func (s *session) Rcpt(_ string, _ *smtp.RcptOptions) error { return nil }
func (s *session) Data(r io.Reader) error                   { _, err := io.Copy(io.Discard, r); return err }

// startSMTPServer runs a go-smtp server on a random local port
func startSMTPServer(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := smtp.NewServer(&backend{})
	server.Domain = "localhost"
	server.ReadTimeout = 5 * time.Second
	server.WriteTimeout = 5 * time.Second

	go func() {
		_ = server.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = server.Close()
	})

	return ln.Addr().(*net.TCPAddr).Port
}

func TestTCPProbe_Connect(t *testing.T) {
	port := startSMTPServer(t)

	p := probe.NewTCPProbe(port, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result := p.Probe(ctx, "127.0.0.1")
	assert.True(t, result.Reachable)
	assert.Equal(t, core.ProbeConnect, result.Code)
}

func TestTCPProbe_Refused(t *testing.T) {
	// Grab a free port and release it so nothing is listening there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	p := probe.NewTCPProbe(port, nil)
	result := p.Probe(context.Background(), "127.0.0.1")
	assert.False(t, result.Reachable)
	assert.Equal(t, core.ProbeError, result.Code)
}

func TestTCPProbe_Timeout(t *testing.T) {
	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	p := probe.NewTCPProbeWithDialer(25, dial, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result := p.Probe(ctx, "mx.example.com")
	assert.False(t, result.Reachable)
	assert.Equal(t, core.ProbeTimeout, result.Code)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestTCPProbe_NetTimeoutError(t *testing.T) {
	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, &net.OpError{Op: "dial", Net: network, Err: timeoutError{}}
	}
	p := probe.NewTCPProbeWithDialer(25, dial, nil)

	result := p.Probe(context.Background(), "mx.example.com")
	assert.Equal(t, core.ProbeTimeout, result.Code)
}

func TestTCPProbe_DialError(t *testing.T) {
	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("network unreachable")
	}
	p := probe.NewTCPProbeWithDialer(25, dial, nil)

	result := p.Probe(context.Background(), "mx.example.com")
	assert.False(t, result.Reachable)
	assert.Equal(t, core.ProbeError, result.Code)
}

type trackedConn struct {
	net.Conn
	closed atomic.Bool
}

func (c *trackedConn) Close() error {
	c.closed.Store(true)
	return c.Conn.Close()
}

func TestTCPProbe_ClosesConnectionAndUsesPort(t *testing.T) {
	var dialed string
	var conn *trackedConn
	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		dialed = address
		client, server := net.Pipe()
		t.Cleanup(func() { _ = server.Close() })
		conn = &trackedConn{Conn: client}
		return conn, nil
	}
	p := probe.NewTCPProbeWithDialer(2525, dial, nil)

	result := p.Probe(context.Background(), "mx.example.com")
	assert.True(t, result.Reachable)
	assert.Equal(t, net.JoinHostPort("mx.example.com", strconv.Itoa(2525)), dialed)
	require.NotNil(t, conn)
	assert.True(t, conn.closed.Load())
}

func TestNewTCPProbe_DefaultPort(t *testing.T) {
	var dialed string
	dial := func(ctx context.Context, network, address string) (net.Conn, error) {
		dialed = address
		return nil, errors.New("refused")
	}
	p := probe.NewTCPProbeWithDialer(0, dial, nil)
	p.Probe(context.Background(), "mx.example.com")
	assert.Equal(t, "mx.example.com:25", dialed)
}
