package core

import (
	"fmt"
	"time"
)

const (
	defaultDeepLimit     = 10
	defaultFastLimit     = 20
	defaultConcurrency   = 10
	defaultLookupTimeout = 3 * time.Second
	defaultProbeTimeout  = 5 * time.Second
	defaultCacheTTL      = time.Hour
)

// Options configures the classifier and batch runner
type Options struct {
	Mode Mode

	// Limit caps how many addresses of a batch are classified.
	// Zero selects the mode default.
	Limit int

	// Concurrency bounds how many addresses are classified at once
	Concurrency int

	// BatchTimeout is an optional deadline for a whole batch. Zero disables it.
	BatchTimeout time.Duration

	LookupTimeout time.Duration
	ProbeTimeout  time.Duration

	CacheEnabled bool
	CacheTTL     time.Duration
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions(mode Mode) Options {
	return Options{
		Mode:          mode,
		Concurrency:   defaultConcurrency,
		LookupTimeout: defaultLookupTimeout,
		ProbeTimeout:  defaultProbeTimeout,
		CacheTTL:      defaultCacheTTL,
	}
}

// Validate checks the options and fills zero values with defaults
func (o Options) Validate() (Options, error) {
	if o.Mode != ModeFast && o.Mode != ModeDeep {
		return o, fmt.Errorf("unsupported vetting mode: %q", o.Mode)
	}
	if o.Limit < 0 {
		return o, fmt.Errorf("batch limit must not be negative: %d", o.Limit)
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.BatchTimeout < 0 {
		o.BatchTimeout = 0
	}
	if o.LookupTimeout <= 0 {
		o.LookupTimeout = defaultLookupTimeout
	}
	if o.ProbeTimeout <= 0 {
		o.ProbeTimeout = defaultProbeTimeout
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = defaultCacheTTL
	}
	return o, nil
}

// EffectiveLimit returns the configured limit or the mode default
func (o Options) EffectiveLimit() int {
	if o.Limit > 0 {
		return o.Limit
	}
	if o.Mode == ModeDeep {
		return defaultDeepLimit
	}
	return defaultFastLimit
}
