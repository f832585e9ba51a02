// Package errs holds the error kinds shared by the service layers. The HTTP
// boundary maps each kind to a status code with errors.Is.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthenticated  = errors.New("authentication required")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
)

// Invalid returns an ErrInvalidInput carrying a client-facing message.
func Invalid(format string, args ...any) error {
	return wrap(ErrInvalidInput, format, args...)
}

// NotFound returns an ErrNotFound carrying a client-facing message.
func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// Denied returns an ErrPermissionDenied carrying a client-facing message.
func Denied(format string, args ...any) error {
	return wrap(ErrPermissionDenied, format, args...)
}

// Unauthenticated returns an ErrUnauthenticated carrying a client-facing message.
func Unauthenticated(format string, args ...any) error {
	return wrap(ErrUnauthenticated, format, args...)
}

// Conflict returns an ErrConflict carrying a client-facing message.
func Conflict(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

// wrap attaches a formatted message to kind.
func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Message returns the client-facing part of err, without the kind prefix.
func Message(err error) string {
	msg := err.Error()
	for _, kind := range []error{ErrInvalidInput, ErrUnauthenticated, ErrPermissionDenied, ErrNotFound, ErrConflict} {
		if !errors.Is(err, kind) {
			continue
		}
		if rest, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
			return rest
		}
	}
	return msg
}
