// Package errors provides error handling for the cohort pipeline.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for CLI users
//   - Marks, so a wrapped transport failure still answers Is(ErrEndpoint)
//
// Usage:
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Classify without losing the cause
//	return errors.Mark(errors.Wrap(err, "query endpoint"), errors.ErrEndpoint)
//
//	// Check errors
//	if errors.Is(err, errors.ErrConflict) {
//	    // duplicate source data
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is           = crdb.Is
	IsAny        = crdb.IsAny
	As           = crdb.As
	Unwrap       = crdb.Unwrap
	UnwrapAll    = crdb.UnwrapAll
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints

	GetReportableStackTrace = crdb.GetReportableStackTrace
)

// GetStack is shorthand for GetReportableStackTrace
var GetStack = crdb.GetReportableStackTrace

// Pipeline error taxonomy.
// Every failure surfaced by a load or a catalog read answers errors.Is
// against exactly one of these.
var (
	// ErrEndpoint indicates the SPARQL endpoint was unreachable or answered
	// with something that is not a result set of the expected shape
	ErrEndpoint = New("endpoint error")

	// ErrParse indicates a binding could not be read as a well-formed record
	ErrParse = New("parse error")

	// ErrConflict indicates two records target the same (subject, date, metric) slot
	ErrConflict = New("conflicting records")

	// ErrNotFound indicates the requested subject or snapshot does not exist
	ErrNotFound = New("not found")

	// ErrNotLoaded indicates a catalog read before any successful load
	ErrNotLoaded = New("no dataset loaded")

	// ErrInvalidRequest indicates a malformed argument (unknown study,
	// unsafe identifier, duplicate whitelist code)
	ErrInvalidRequest = New("invalid request")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsEndpointError checks if an error is or wraps ErrEndpoint
func IsEndpointError(err error) bool {
	return err != nil && Is(err, ErrEndpoint)
}

// MarkEndpoint wraps err with context and marks it as an endpoint failure.
// Returns nil when err is nil.
func MarkEndpoint(err error, context string) error {
	if err == nil {
		return nil
	}
	return Mark(Wrap(err, context), ErrEndpoint)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidRequest, format, args...)
}
