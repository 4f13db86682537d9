// Package errors provides error handling for ledgershift.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints surfaced to operators on fatal pipeline errors
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrNoProvider) {
//	    // no legacy provider registered
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
)

// User-facing messages and details
var (
	WithHint        = crdb.WithHint
	WithHintf       = crdb.WithHintf
	WithDetail      = crdb.WithDetail
	WithDetailf     = crdb.WithDetailf
	WithSafeDetails = crdb.WithSafeDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors for the migration pipeline. Use with errors.Is() for
// type-safe checks; wrap with errors.Wrap() to add context while
// preserving the type.
//
// Detection, backup and target-resolution errors are pipeline-fatal.
// Switch and verification errors degrade the result but never abort
// a run that has already mutated the target.
var (
	// ErrNoProvider indicates no legacy balance provider is registered
	ErrNoProvider = New("no balance provider registered")

	// ErrAlreadyTarget indicates the active provider is already the ledger store
	ErrAlreadyTarget = New("active provider is already the target ledger store")

	// ErrUnsupportedProvider indicates no migration strategy matches the
	// active provider's name
	ErrUnsupportedProvider = New("unsupported balance provider")

	// ErrBackupWrite indicates the pre-migration snapshot could not be persisted
	ErrBackupWrite = New("backup snapshot write failed")

	// ErrLedgerCreate indicates the target ledger could not be created
	ErrLedgerCreate = New("target ledger creation failed")

	// ErrMigrationRunning indicates a migration run is already in flight
	ErrMigrationRunning = New("migration already in progress")

	// ErrSwitchFailed indicates provider failover did not complete
	ErrSwitchFailed = New("provider switch failed")

	// ErrVerifyMismatch indicates a sampled balance differed between
	// source and target beyond tolerance
	ErrVerifyMismatch = New("post-migration verification mismatch")

	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = New("not found")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}
