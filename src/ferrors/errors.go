// Package ferrors defines the typed error kinds surfaced by the package
// repository engine to its callers (the HTTP controller, the CLI, tests).
package ferrors

import (
	"errors"
	"fmt"
)

// Kind identifies one of the error categories the engine can produce.
type Kind string

const (
	// InvalidArgument marks a caller-supplied value that cannot be used:
	// an empty id, a malformed version, a bad configuration value.
	InvalidArgument Kind = "invalid_argument"

	// NotFound marks a lookup or download that found nothing. Removing
	// an absent package is a no-op, not a NotFound error.
	NotFound Kind = "not_found"

	// AlreadyExists marks a push of an (id, version) pair that is already
	// present and overwrite-on-push is disabled.
	AlreadyExists Kind = "already_exists"

	// SymbolsRejected marks a push of a symbols archive while the
	// ignore-symbols policy is active.
	SymbolsRejected Kind = "symbols_rejected"

	// InvalidConfiguration marks a repository that could not be
	// constructed because one of its options was structurally invalid.
	InvalidConfiguration Kind = "invalid_configuration"

	// Transient marks a failure that was logged and skipped without
	// failing the overall operation (e.g. one bad file during a
	// drop-folder scan).
	Transient Kind = "transient"

	// Internal marks an unrecoverable invariant failure.
	Internal Kind = "internal"
)

// Error is the concrete error type returned by repository operations.
//
// Op names the operation that failed (e.g. "AddPackage", "cache.Load").
// Err, when set, is the underlying cause and is reachable via Unwrap so
// callers can still use errors.Is/errors.As on it.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" && e.Err != nil {
		return fmt.Sprintf("feedkeeper: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("feedkeeper: %s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("feedkeeper: %s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ferrors.New(ferrors.NotFound, "", "")) style
// matching: two *Error values match when their Kinds are equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error for the given kind.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap constructs an *Error that carries an underlying cause.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Wrapf constructs an *Error with a formatted message and underlying cause.
func Wrapf(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the Kind of err if it is (or wraps) a *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}
