package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog operations
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrTransient indicates a network or server failure worth retrying
	ErrTransient = errors.New("catalog temporarily unavailable")

	// ErrMalformedReference indicates a relation URL that names no known collection
	ErrMalformedReference = errors.New("malformed reference")

	// ErrInvalidCredentials indicates a failed sign-in
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNotAuthenticated indicates an operation attempted without a session
	ErrNotAuthenticated = errors.New("not signed in")
)

// NotFoundError reports a missing record
type NotFoundError struct {
	Type EntityType
	ID   string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Type, e.ID)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// TransientError reports a failure the caller may retry
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + ErrTransient.Error()
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrTransient.Error(), e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool { return target == ErrTransient }

// MalformedReferenceError reports a reference that cannot be resolved.
// Callers treat it as "no data", not as a failure.
type MalformedReferenceError struct {
	Raw    string
	Reason string
}

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("malformed reference %q: %s", e.Raw, e.Reason)
}

func (e *MalformedReferenceError) Is(target error) bool { return target == ErrMalformedReference }

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsTransient reports whether err can be retried
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

// IsMalformedReference reports whether err marks an unresolvable reference
func IsMalformedReference(err error) bool { return errors.Is(err, ErrMalformedReference) }
