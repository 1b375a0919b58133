// Package errors re-exports github.com/cockroachdb/errors and defines the
// sentinel errors shared by the store, the capability layer and the HTTP API.
//
// Wrap sentinels to add context while keeping them checkable with Is:
//
//	return errors.Wrapf(errors.ErrNotFound, "job %s", id)
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New       = crdb.New
	Newf      = crdb.Newf
	Wrap      = crdb.Wrap
	Wrapf     = crdb.Wrapf
	WithStack = crdb.WithStack
	WithHint  = crdb.WithHint
	WithHintf = crdb.WithHintf
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	GetStack  = crdb.GetReportableStackTrace
)

var (
	// ErrNotFound is returned for missing records and for records owned by another tenant.
	ErrNotFound = New("not found")

	// ErrUnauthenticated is returned when no caller identity is present.
	ErrUnauthenticated = New("not authenticated")

	// ErrInvalidRequest marks malformed input.
	ErrInvalidRequest = New("invalid request")

	// ErrConflict marks a uniqueness violation, e.g. a duplicate application.
	ErrConflict = New("conflict")
)

// NewNotFoundError creates a not-found error with a formatted message.
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message.
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidRequest, format, args...)
}

// NewConflictError creates a conflict error with a formatted message.
func NewConflictError(format string, args ...interface{}) error {
	return Wrapf(ErrConflict, format, args...)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return err != nil && Is(err, ErrNotFound) }

// IsInvalidRequest reports whether err is or wraps ErrInvalidRequest.
func IsInvalidRequest(err error) bool { return err != nil && Is(err, ErrInvalidRequest) }

// IsConflict reports whether err is or wraps ErrConflict.
func IsConflict(err error) bool { return err != nil && Is(err, ErrConflict) }

// IsUnauthenticated reports whether err is or wraps ErrUnauthenticated.
func IsUnauthenticated(err error) bool { return err != nil && Is(err, ErrUnauthenticated) }
