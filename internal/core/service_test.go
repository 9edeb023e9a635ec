package core_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/email-vetter/internal/adapters/cache"
	"github.com/mikey/email-vetter/internal/core"
	"github.com/mikey/email-vetter/internal/reputation"
)

// fakeResolver serves MX answers from a map; unknown domains fail like NXDOMAIN
type fakeResolver struct {
	records map[string][]core.MXRecord
	errs    map[string]error
	calls   atomic.Int32
	block   bool
	panics  bool
}

func (r *fakeResolver) ResolveMX(ctx context.Context, domain string) ([]core.MXRecord, error) {
	r.calls.Add(1)
	if r.panics {
		panic("resolver exploded")
	}
	if r.block {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %s", core.ErrLookupTimeout, domain)
	}
	if err, ok := r.errs[domain]; ok {
		return nil, err
	}
	if records, ok := r.records[domain]; ok {
		return records, nil
	}
	return nil, fmt.Errorf("%w: %s: NXDOMAIN", core.ErrLookupFailed, domain)
}

// fakeProber answers per host; unknown hosts are unreachable
type fakeProber struct {
	results map[string]core.ProbeResult
	probed  []string
	block   bool
}

func (p *fakeProber) Probe(ctx context.Context, host string) core.ProbeResult {
	p.probed = append(p.probed, host)
	if p.block {
		<-ctx.Done()
		return core.ProbeResult{Code: core.ProbeTimeout}
	}
	if res, ok := p.results[host]; ok {
		return res
	}
	return core.ProbeResult{Code: core.ProbeError}
}

// contextProber connects unless the caller's context is already done
type contextProber struct {
	probed atomic.Int32
}

func (p *contextProber) Probe(ctx context.Context, host string) core.ProbeResult {
	p.probed.Add(1)
	if ctx.Err() != nil {
		return core.ProbeResult{Code: core.ProbeError}
	}
	return core.ProbeResult{Reachable: true, Code: core.ProbeConnect}
}

func defaultTable() *reputation.Table {
	return reputation.NewTable(reputation.Lists{
		Disposable:         reputation.DefaultDisposableDomains,
		Trusted:            reputation.DefaultTrustedDomains,
		SuspiciousPatterns: reputation.DefaultSuspiciousPatterns,
	}, nil)
}

func newFast(t *testing.T) *core.EmailClassifier {
	t.Helper()
	c, err := core.NewEmailClassifier(defaultTable(), nil, nil, nil, nil, core.DefaultOptions(core.ModeFast))
	require.NoError(t, err)
	return c
}

func newDeep(t *testing.T, r core.MXResolver, p core.SMTPProber, repo core.CacheRepository) *core.EmailClassifier {
	t.Helper()
	opts := core.DefaultOptions(core.ModeDeep)
	opts.LookupTimeout = 50 * time.Millisecond
	opts.ProbeTimeout = 50 * time.Millisecond
	opts.CacheEnabled = repo != nil
	c, err := core.NewEmailClassifier(defaultTable(), r, p, repo, nil, opts)
	require.NoError(t, err)
	return c
}

func reachableWorld() (*fakeResolver, *fakeProber) {
	r := &fakeResolver{
		records: map[string][]core.MXRecord{
			"example.com": {
				{Host: "backup.example.com", Priority: 20},
				{Host: "mx.example.com", Priority: 10},
			},
			"dead.example": {{Host: "mx.dead.example", Priority: 5}},
			"slow.example": {{Host: "mx.slow.example", Priority: 5}},
		},
		errs: map[string]error{
			"nomx.example": fmt.Errorf("%w: nomx.example", core.ErrNoRecords),
		},
	}
	p := &fakeProber{
		results: map[string]core.ProbeResult{
			"mx.example.com":  {Reachable: true, Code: core.ProbeConnect},
			"mx.slow.example": {Reachable: false, Code: core.ProbeTimeout},
		},
	}
	return r, p
}

func TestNewEmailClassifier_Validation(t *testing.T) {
	_, err := core.NewEmailClassifier(nil, nil, nil, nil, nil, core.DefaultOptions(core.ModeFast))
	assert.Error(t, err)

	_, err = core.NewEmailClassifier(defaultTable(), nil, nil, nil, nil, core.DefaultOptions(core.ModeDeep))
	assert.Error(t, err)

	_, err = core.NewEmailClassifier(defaultTable(), nil, nil, nil, nil, core.Options{Mode: "both"})
	assert.Error(t, err)
}

func TestClassify_InvalidSyntax(t *testing.T) {
	r, p := reachableWorld()
	for _, c := range []*core.EmailClassifier{newFast(t), newDeep(t, r, p, nil)} {
		for _, email := range []string{"not-an-email", "user@", "a@b.c", "two@@example.com"} {
			v := c.Classify(context.Background(), email)
			assert.Equal(t, core.StatusInvalid, v.Status, email)
			assert.Equal(t, core.ReasonInvalidFormat, v.Reason, email)
			assert.False(t, v.SMTPReachable, email)
			assert.False(t, v.MXPresent, email)
		}
	}
	assert.Zero(t, r.calls.Load())
}

func TestClassify_EmptyInput(t *testing.T) {
	c := newFast(t)
	for _, email := range []string{"", "   ", "\t\n"} {
		v := c.Classify(context.Background(), email)
		assert.Equal(t, core.StatusInvalid, v.Status)
		assert.Equal(t, core.ReasonEmptyInput, v.Reason)
	}
}

func TestClassify_DisposableRegardlessOfMode(t *testing.T) {
	r, p := reachableWorld()
	classifiers := map[string]*core.EmailClassifier{
		"fast": newFast(t),
		"deep": newDeep(t, r, p, nil),
	}

	for name, c := range classifiers {
		for _, domain := range reputation.DefaultDisposableDomains {
			v := c.Classify(context.Background(), "user@"+domain)
			assert.Equal(t, core.StatusRisky, v.Status, name+" "+domain)
			assert.Equal(t, core.ReasonDisposable, v.Reason, name+" "+domain)
			assert.True(t, v.Disposable, name+" "+domain)
			assert.False(t, v.SMTPReachable)
			assert.False(t, v.MXPresent)
		}
	}
	// Disposable rejection never reaches the network
	assert.Zero(t, r.calls.Load())
	assert.Empty(t, p.probed)
}

func TestClassify_FastMode(t *testing.T) {
	c := newFast(t)
	ctx := context.Background()

	v := c.Classify(ctx, "user@gmail.com")
	assert.Equal(t, core.Verdict{
		Email:         "user@gmail.com",
		Status:        core.StatusValid,
		Reason:        core.ReasonTrusted,
		SMTPReachable: true,
		MXPresent:     true,
		Trusted:       true,
	}, v)

	v = c.Classify(ctx, "demo.account@startup.io")
	assert.Equal(t, core.StatusRisky, v.Status)
	assert.Equal(t, core.ReasonSuspicious, v.Reason)
	assert.True(t, v.Suspicious)

	// Trusted wins over suspicious
	v = c.Classify(ctx, "test@gmail.com")
	assert.Equal(t, core.ReasonTrusted, v.Reason)

	v = c.Classify(ctx, "jane@startup.io")
	assert.Equal(t, core.StatusValid, v.Status)
	assert.Equal(t, core.ReasonProbablyValid, v.Reason)
	assert.True(t, v.SMTPReachable)
	assert.True(t, v.MXPresent)
	assert.Empty(t, v.MXHost)
}

func TestClassify_Allowlist(t *testing.T) {
	table := reputation.NewTable(reputation.Lists{
		Disposable: reputation.DefaultDisposableDomains,
		Trusted:    reputation.DefaultTrustedDomains,
		Allowlist:  []string{"Corp.Example"},
	}, nil)
	c, err := core.NewEmailClassifier(table, nil, nil, nil, nil, core.DefaultOptions(core.ModeFast))
	require.NoError(t, err)

	v := c.Classify(context.Background(), "ceo@corp.example")
	assert.Equal(t, core.ReasonTrusted, v.Reason)
	assert.True(t, v.Trusted)
}

func TestClassify_DeepMode(t *testing.T) {
	r, p := reachableWorld()
	c := newDeep(t, r, p, nil)
	ctx := context.Background()

	t.Run("reachable primary", func(t *testing.T) {
		v := c.Classify(ctx, "user@example.com")
		assert.Equal(t, core.Verdict{
			Email:         "user@example.com",
			Status:        core.StatusValid,
			Reason:        core.ReasonSMTPReachable,
			SMTPReachable: true,
			MXPresent:     true,
			MXHost:        "mx.example.com",
			SMTPProbeCode: core.ProbeConnect,
		}, v)
	})

	t.Run("unreachable primary", func(t *testing.T) {
		v := c.Classify(ctx, "user@dead.example")
		assert.Equal(t, core.StatusInvalid, v.Status)
		assert.Equal(t, core.ReasonSMTPUnreachable, v.Reason)
		assert.True(t, v.MXPresent)
		assert.False(t, v.SMTPReachable)
		assert.Equal(t, "mx.dead.example", v.MXHost)
		assert.Equal(t, core.ProbeError, v.SMTPProbeCode)
	})

	t.Run("probe timeout", func(t *testing.T) {
		v := c.Classify(ctx, "user@slow.example")
		assert.Equal(t, core.StatusInvalid, v.Status)
		assert.Equal(t, core.ReasonSMTPTimeout, v.Reason)
		assert.Equal(t, core.ProbeTimeout, v.SMTPProbeCode)
	})

	t.Run("no mx records", func(t *testing.T) {
		v := c.Classify(ctx, "user@nomx.example")
		assert.Equal(t, core.StatusInvalid, v.Status)
		assert.Equal(t, core.ReasonNoMailServer, v.Reason)
		assert.False(t, v.MXPresent)
	})

	t.Run("nonexistent domain", func(t *testing.T) {
		v := c.Classify(ctx, "user@totally-bogus-nonexistent-domain-xyz123.com")
		assert.Equal(t, core.StatusInvalid, v.Status)
		assert.Equal(t, core.ReasonDomainMissing, v.Reason)
		assert.False(t, v.MXPresent)
		assert.False(t, v.SMTPReachable)
	})

	t.Run("trusted domains are still verified", func(t *testing.T) {
		v := c.Classify(ctx, "user@gmail.com")
		assert.Equal(t, core.ReasonDomainMissing, v.Reason)
		assert.False(t, v.Trusted)
	})
}

func TestClassify_DeepModeTimeouts(t *testing.T) {
	t.Run("lookup", func(t *testing.T) {
		r := &fakeResolver{block: true}
		c := newDeep(t, r, &fakeProber{}, nil)

		start := time.Now()
		v := c.Classify(context.Background(), "user@example.com")
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, core.ReasonDomainMissing, v.Reason)
	})

	t.Run("probe", func(t *testing.T) {
		r, _ := reachableWorld()
		c := newDeep(t, r, &fakeProber{block: true}, nil)

		start := time.Now()
		v := c.Classify(context.Background(), "user@example.com")
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, core.ReasonSMTPTimeout, v.Reason)
	})
}

func TestClassify_PanicBecomesInvalid(t *testing.T) {
	c := newDeep(t, &fakeResolver{panics: true}, &fakeProber{}, nil)

	v := c.Classify(context.Background(), " User@Example.com ")
	assert.Equal(t, core.Verdict{
		Email:  "user@example.com",
		Status: core.StatusInvalid,
		Reason: core.ReasonInternal,
	}, v)
}

func TestClassify_Normalization(t *testing.T) {
	r, p := reachableWorld()
	for _, c := range []*core.EmailClassifier{newFast(t), newDeep(t, r, p, nil)} {
		ctx := context.Background()
		assert.Equal(t, c.Classify(ctx, "foo@example.com"), c.Classify(ctx, " Foo@Example.COM "))
		assert.Equal(t, c.Classify(ctx, "foo@bar.com"), c.Classify(ctx, " Foo@Bar.COM "))
	}
}

func TestClassify_Idempotent(t *testing.T) {
	r, p := reachableWorld()
	c := newDeep(t, r, p, nil)
	ctx := context.Background()

	for _, email := range []string{"user@example.com", "user@dead.example", "user@nomx.example", "bad"} {
		first := c.Classify(ctx, email)
		second := c.Classify(ctx, email)
		assert.Equal(t, first.Status, second.Status, email)
		assert.Equal(t, first.Reason, second.Reason, email)
	}
}

func TestClassify_DeepModeCache(t *testing.T) {
	r, p := reachableWorld()
	repo := cache.NewMemoryCache(nil, 0)
	defer repo.Stop()

	c := newDeep(t, r, p, repo)
	ctx := context.Background()

	first := c.Classify(ctx, "user@example.com")
	second := c.Classify(ctx, "USER@example.com")
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Len(t, p.probed, 1)

	// Timeouts are not cached
	c.Classify(ctx, "user@slow.example")
	c.Classify(ctx, "user@slow.example")
	assert.Equal(t, int32(3), r.calls.Load())

	entry, err := repo.Get(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, first, entry.Verdict)
}

func TestClassify_DeepModeCacheSkipsCancelledProbe(t *testing.T) {
	r, _ := reachableWorld()
	p := &contextProber{}
	repo := cache.NewMemoryCache(nil, 0)
	defer repo.Stop()

	c := newDeep(t, r, p, repo)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	aborted := c.Classify(cancelled, "user@example.com")
	assert.Equal(t, core.StatusInvalid, aborted.Status)
	assert.Equal(t, core.ReasonSMTPUnreachable, aborted.Reason)

	_, err := repo.Get(context.Background(), "user@example.com")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	v := c.Classify(context.Background(), "user@example.com")
	assert.Equal(t, core.StatusValid, v.Status)
	assert.Equal(t, core.ReasonSMTPReachable, v.Reason)
	assert.Equal(t, int32(2), p.probed.Load())

	entry, err := repo.Get(context.Background(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, v, entry.Verdict)
}

func TestVerdictJSON(t *testing.T) {
	c := newFast(t)

	data, err := json.Marshal(c.Classify(context.Background(), "user@mailinator.com"))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"email":"user@mailinator.com","status":"risky","reason":"disposable email detected","smtpReachable":false,"mxPresent":false,"disposable":true}`,
		string(data))

	data, err = json.Marshal(c.Classify(context.Background(), "user@gmail.com"))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"email":"user@gmail.com","status":"valid","reason":"trusted domain","smtpReachable":true,"mxPresent":true,"trusted":true}`,
		string(data))
}
