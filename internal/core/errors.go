package core

import "errors"

var (
	// ErrInvalidInput is returned for empty or non-string input
	ErrInvalidInput = errors.New("empty or invalid input")
	// ErrSyntax is returned when an address fails the syntax check
	ErrSyntax = errors.New("invalid address syntax")

	// ErrNoRecords is returned when a domain resolves but publishes no MX records
	ErrNoRecords = errors.New("no MX records")
	// ErrLookupTimeout is returned when an MX lookup does not finish before its deadline
	ErrLookupTimeout = errors.New("MX lookup timed out")
	// ErrLookupFailed is returned for any other resolution failure, including NXDOMAIN
	ErrLookupFailed = errors.New("MX lookup failed")

	// ErrConnectTimeout is returned when a probe connection does not complete in time
	ErrConnectTimeout = errors.New("SMTP connect timed out")
	// ErrConnectFailed is returned when a probe connection is refused or errors
	ErrConnectFailed = errors.New("SMTP connect failed")

	// ErrInternal marks an unexpected failure inside the pipeline
	ErrInternal = errors.New("internal classification error")
)
