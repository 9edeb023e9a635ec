package core

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// syntaxPattern is deliberately approximate: no quoted local parts and no
// internationalized domains.
var syntaxPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidSyntax reports whether an address has the shape local@domain.tld
func IsValidSyntax(email string) bool {
	return syntaxPattern.MatchString(email)
}

// Normalize trims surrounding whitespace and lower-cases an address
func Normalize(raw string) string {
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Lower(language.Und).String(strings.TrimSpace(raw))
}
