// Package reputation classifies email domains against static disposable and
// trusted lists. A Table is built once at startup and never modified.
package reputation

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Class is the reputation of a domain
type Class int

const (
	Unknown Class = iota
	Disposable
	Trusted
)

func (c Class) String() string {
	switch c {
	case Disposable:
		return "disposable"
	case Trusted:
		return "trusted"
	default:
		return "unknown"
	}
}

// DefaultDisposableDomains are throwaway mailbox providers
var DefaultDisposableDomains = []string{
	"10minutemail.com",
	"guerrillamail.com",
	"mailinator.com",
	"tempmail.org",
	"sharklasers.com",
	"yopmail.com",
	"spam4.me",
	"throwaway.email",
	"getnada.com",
}

// DefaultTrustedDomains are major consumer and ISP webmail providers
var DefaultTrustedDomains = []string{
	"gmail.com",
	"yahoo.com",
	"outlook.com",
	"hotmail.com",
	"icloud.com",
}

// DefaultSuspiciousPatterns are local-part substrings that suggest a throwaway signup
var DefaultSuspiciousPatterns = []string{"test", "demo", "fake"}

// Lists is the raw input a Table is built from
type Lists struct {
	Disposable         []string
	Trusted            []string
	Allowlist          []string
	SuspiciousPatterns []string
}

// Table is an immutable domain reputation lookup
type Table struct {
	disposable map[string]struct{}
	trusted    map[string]struct{}
	suspicious []string
}

// NewTable builds a table from the given lists. Entries are trimmed and
// lower-cased; the organization allowlist is merged into the trusted set.
func NewTable(lists Lists, logger *zap.Logger) *Table {
	t := &Table{
		disposable: toSet(lists.Disposable),
		trusted:    toSet(append(append([]string{}, lists.Trusted...), lists.Allowlist...)),
	}
	for _, p := range lists.SuspiciousPatterns {
		if p = normalize(p); p != "" {
			t.suspicious = append(t.suspicious, p)
		}
	}

	if logger != nil {
		logger.Info("Initialized domain reputation table",
			zap.Int("disposable_domains", len(t.disposable)),
			zap.Int("trusted_domains", len(t.trusted)),
			zap.Int("allowlisted_domains", len(lists.Allowlist)),
			zap.Strings("suspicious_patterns", t.suspicious))
	}

	return t
}

// Classify returns the reputation of a domain. Disposable takes precedence
// over trusted when a domain appears in both sets.
func (t *Table) Classify(domain string) Class {
	domain = normalize(domain)
	if _, ok := t.disposable[domain]; ok {
		return Disposable
	}
	if _, ok := t.trusted[domain]; ok {
		return Trusted
	}
	return Unknown
}

// IsSuspicious reports whether a local part contains one of the suspicious patterns
func (t *Table) IsSuspicious(local string) bool {
	local = normalize(local)
	for _, p := range t.suspicious {
		if strings.Contains(local, p) {
			return true
		}
	}
	return false
}

// LoadDomainFile reads a domain list with one entry per line.
// Blank lines and lines starting with # are ignored.
func LoadDomainFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open domain list: %w", err)
	}
	defer f.Close()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read domain list %s: %w", path, err)
	}
	return domains, nil
}

func toSet(domains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		if d = normalize(d); d != "" {
			set[d] = struct{}{}
		}
	}
	return set
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
