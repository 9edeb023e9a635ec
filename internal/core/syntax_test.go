package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidSyntax(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"first.last+tag@sub.example.co", true},
		{"a_b%c-d@example-mail.org", true},
		{"not-an-email", false},
		{"user@", false},
		{"@example.com", false},
		{"user@example", false},
		{"user@example.c", false},
		{"user@exa@mple.com", false},
		{`"quoted"@example.com`, false},
		{"jösé@example.com", false},
		{"user@example.123", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidSyntax(tt.email))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "foo@bar.com", Normalize(" Foo@Bar.COM "))
	assert.Equal(t, "foo@bar.com", Normalize("\tfoo@bar.com\n"))
	assert.Equal(t, "", Normalize("   "))
}
