package core

import (
	"fmt"
	"strings"
	"time"
)

// Status is the final classification of an address
type Status string

const (
	StatusValid   Status = "valid"
	StatusRisky   Status = "risky"
	StatusInvalid Status = "invalid"
)

// ProbeCode is the outcome of an SMTP reachability probe
type ProbeCode string

const (
	ProbeConnect ProbeCode = "CONNECT"
	ProbeTimeout ProbeCode = "TIMEOUT"
	ProbeError   ProbeCode = "ERROR"
)

// Mode selects between offline heuristics and live network verification
type Mode string

const (
	// ModeFast classifies from static lists and local-part heuristics only
	ModeFast Mode = "fast"
	// ModeDeep resolves MX records and probes the primary mail exchanger
	ModeDeep Mode = "deep"
)

// ParseMode converts a configuration string into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFast:
		return ModeFast, nil
	case ModeDeep:
		return ModeDeep, nil
	default:
		return "", fmt.Errorf("unsupported vetting mode: %q", s)
	}
}

// Reasons attached to verdicts. Each decision branch uses exactly one.
const (
	ReasonEmptyInput      = "empty or invalid input"
	ReasonInvalidFormat   = "invalid format"
	ReasonMalformed       = "malformed structure"
	ReasonDisposable      = "disposable email detected"
	ReasonNoMailServer    = "no mail server"
	ReasonDomainMissing   = "domain does not exist"
	ReasonSMTPReachable   = "smtp server reachable"
	ReasonSMTPTimeout     = "smtp timeout"
	ReasonSMTPUnreachable = "smtp server unreachable"
	ReasonTrusted         = "trusted domain"
	ReasonSuspicious      = "suspicious pattern"
	ReasonProbablyValid   = "probably valid"
	ReasonInternal        = "validation error"
)

// Verdict is the classification result for a single address.
// Optional fields are omitted from JSON when unset.
type Verdict struct {
	Email         string    `json:"email"`
	Status        Status    `json:"status"`
	Reason        string    `json:"reason"`
	SMTPReachable bool      `json:"smtpReachable"`
	MXPresent     bool      `json:"mxPresent"`
	MXHost        string    `json:"mxHost,omitempty"`
	SMTPProbeCode ProbeCode `json:"smtpProbeCode,omitempty"`
	Disposable    bool      `json:"disposable,omitempty"`
	Trusted       bool      `json:"trusted,omitempty"`
	Suspicious    bool      `json:"suspicious,omitempty"`
}

func invalidVerdict(email, reason string) Verdict {
	return Verdict{
		Email:  email,
		Status: StatusInvalid,
		Reason: reason,
	}
}

// MXRecord is a mail exchanger for a domain
type MXRecord struct {
	Host     string
	Priority uint16
}

// ProbeResult is the outcome of a connect-only SMTP probe
type ProbeResult struct {
	Reachable bool
	Code      ProbeCode
}

// CacheEntry holds a verdict cached for a normalized address
type CacheEntry struct {
	Email     string
	Verdict   Verdict
	CachedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its expiry at the given time
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
