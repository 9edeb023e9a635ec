package mx_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/email-vetter/internal/adapters/mx"
	"github.com/mikey/email-vetter/internal/core"
)

// startNameserver runs an in-process DNS server on a random UDP port
func startNameserver(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		Handler:           handler,
		NotifyStartedFunc: func() { close(started) },
	}
	go func() {
		_ = server.ActivateAndServe()
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("nameserver did not start")
	}
	t.Cleanup(func() {
		_ = server.Shutdown()
	})

	return pc.LocalAddr().String()
}

func zoneHandler(w dns.ResponseWriter, req *dns.Msg) {
	resp := new(dns.Msg)
	resp.SetReply(req)

	switch req.Question[0].Name {
	case "example.com.":
		resp.Answer = append(resp.Answer,
			&dns.MX{
				Hdr:        dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeMX, Class: dns.ClassINET, Ttl: 300},
				Preference: 20,
				Mx:         "backup.example.com.",
			},
			&dns.MX{
				Hdr:        dns.RR_Header{Name: "example.com.", Rrtype: dns.TypeMX, Class: dns.ClassINET, Ttl: 300},
				Preference: 10,
				Mx:         "mail.example.com.",
			},
		)
	case "nomail.example.":
		// NOERROR with an empty answer section
	case "nullmx.example.":
		resp.Answer = append(resp.Answer, &dns.MX{
			Hdr:        dns.RR_Header{Name: "nullmx.example.", Rrtype: dns.TypeMX, Class: dns.ClassINET, Ttl: 300},
			Preference: 0,
			Mx:         ".",
		})
	case "broken.example.":
		resp.Rcode = dns.RcodeServerFailure
	case "silent.example.":
		return
	default:
		resp.Rcode = dns.RcodeNameError
	}

	_ = w.WriteMsg(resp)
}

func TestDirectResolver_ResolveMX(t *testing.T) {
	addr := startNameserver(t, zoneHandler)

	r, err := mx.NewDirectResolver([]string{addr}, nil)
	require.NoError(t, err)

	t.Run("records sorted by priority", func(t *testing.T) {
		records, err := r.ResolveMX(context.Background(), "example.com")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, core.MXRecord{Host: "mail.example.com", Priority: 10}, records[0])
		assert.Equal(t, core.MXRecord{Host: "backup.example.com", Priority: 20}, records[1])
	})

	t.Run("domain without MX", func(t *testing.T) {
		_, err := r.ResolveMX(context.Background(), "nomail.example")
		assert.ErrorIs(t, err, core.ErrNoRecords)
	})

	t.Run("null MX", func(t *testing.T) {
		_, err := r.ResolveMX(context.Background(), "nullmx.example")
		assert.ErrorIs(t, err, core.ErrNoRecords)
	})

	t.Run("nxdomain", func(t *testing.T) {
		_, err := r.ResolveMX(context.Background(), "missing.example")
		assert.ErrorIs(t, err, core.ErrLookupFailed)
		assert.NotErrorIs(t, err, core.ErrNoRecords)
	})

	t.Run("server failure", func(t *testing.T) {
		_, err := r.ResolveMX(context.Background(), "broken.example")
		assert.ErrorIs(t, err, core.ErrLookupFailed)
	})

	t.Run("no reply", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err := r.ResolveMX(ctx, "silent.example")
		assert.ErrorIs(t, err, core.ErrLookupTimeout)
	})
}

func TestDirectResolver_FallsThroughToNextServer(t *testing.T) {
	failing := startNameserver(t, func(w dns.ResponseWriter, req *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetRcode(req, dns.RcodeRefused)
		_ = w.WriteMsg(resp)
	})
	working := startNameserver(t, zoneHandler)

	r, err := mx.NewDirectResolver([]string{failing, working}, nil)
	require.NoError(t, err)

	records, err := r.ResolveMX(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", records[0].Host)
}

func TestNewDirectResolver_Servers(t *testing.T) {
	r, err := mx.NewDirectResolver([]string{"192.0.2.1", " 192.0.2.2:5353 ", ""}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.1:53", "192.0.2.2:5353"}, r.Servers())

	_, err = mx.NewDirectResolver(nil, nil)
	assert.Error(t, err)

	_, err = mx.NewDirectResolver([]string{" "}, nil)
	assert.Error(t, err)
}
