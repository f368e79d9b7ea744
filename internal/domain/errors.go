package domain

import "errors"

// Sentinel errors returned by the queue core and checked with errors.Is by
// the HTTP layer. Storage failures are wrapped, not replaced, so callers can
// still unwrap to the underlying driver error for logging.
var (
	// ErrJobNotFound indicates the requested job id is unknown to the
	// coordinator (neither a concrete job nor a schedule template).
	ErrJobNotFound = errors.New("job not found")

	// ErrMalformedID indicates a path segment could not be parsed as a uuid.
	ErrMalformedID = errors.New("malformed job id")

	// ErrBadFilter indicates a list request's status filter could not be
	// interpreted as a known JobStatus.
	ErrBadFilter = errors.New("unrecognized status filter")
)
