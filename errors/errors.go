// Package errors provides error handling for buildamp.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints that the CLI prints under a failure
//
// Usage:
//
//	// Wrap with context
//	if err := writeArtifact(path); err != nil {
//	    return errors.Wrapf(err, "failed to write %s", path)
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "run `buildamp shared` first")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"strings"

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
)

// User-facing messages and details
var (
	WithHint       = crdb.WithHint
	WithHintf      = crdb.WithHintf
	WithDetail     = crdb.WithDetail
	WithDetailf    = crdb.WithDetailf
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors shared across the generator.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrUnknownPhase indicates a phase name that matches no phase or alias
	ErrUnknownPhase = New("unknown phase")

	// ErrPhaseFailed marks a phase that aborted the pipeline
	ErrPhaseFailed = New("phase failed")

	// ErrPermissionDenied indicates the output location refused a write
	ErrPermissionDenied = New("permission denied")

	// ErrMalformedField indicates a field declaration with no discoverable type
	ErrMalformedField = New("malformed field")

	// ErrVersionMismatch indicates the project requires a different buildamp version
	ErrVersionMismatch = New("version mismatch")

	// ErrInvalidConfig indicates configuration values that cannot be used
	ErrInvalidConfig = New("invalid configuration")
)

// IsUnknownPhase checks if an error is or wraps ErrUnknownPhase
func IsUnknownPhase(err error) bool {
	return err != nil && Is(err, ErrUnknownPhase)
}

// IsPermissionDenied checks if an error is or wraps ErrPermissionDenied
func IsPermissionDenied(err error) bool {
	return err != nil && Is(err, ErrPermissionDenied)
}

// NewUnknownPhaseError creates an unknown-phase error naming the offending input
func NewUnknownPhaseError(name string, valid []string) error {
	err := Wrapf(ErrUnknownPhase, "%q", name)
	if len(valid) > 0 {
		err = WithHintf(err, "valid phases: %s", strings.Join(valid, ", "))
	}
	return err
}

// WrapPermissionDenied marks err as a permission failure for path
func WrapPermissionDenied(err error, path string) error {
	return Wrapf(Wrap(ErrPermissionDenied, err.Error()), "write %s", path)
}
