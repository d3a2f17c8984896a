// Package domainerrors defines the coded error taxonomy shared by every
// domain module. Services construct these directly; stores return sentinel
// errors (pkg/platform/sentinel) which services translate into codes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure. Codes are stable strings so callers
// (HTTP handlers, tests) can branch without string-matching messages.
type Code string

const (
	// CodeValidation marks malformed input: empty name, bad email shape,
	// weak password. Recoverable by the caller correcting input.
	CodeValidation Code = "validation"

	// CodeAlreadyExists marks a uniqueness violation on a name or id.
	CodeAlreadyExists Code = "already_exists"

	// CodeNotFound marks a reference to a missing administrator, client or role.
	CodeNotFound Code = "not_found"

	// CodeOperation marks a business-rule violation that is not a security
	// concern: disabled actor, outstanding client ownership, not-own-client
	// deletion.
	CodeOperation Code = "operation"

	// CodeSecurity marks a missing permission or a forbidden self-targeting
	// action (self-delete, self-disable) and attempts to modify system roles.
	CodeSecurity Code = "security"

	// CodeConcurrency marks a version mismatch detected by a persistence
	// adapter at save time. Aggregates never produce this themselves.
	CodeConcurrency Code = "concurrency"

	// CodeUnauthorized marks a failed authentication (bad or expired token).
	CodeUnauthorized Code = "unauthorized"

	// CodeInternal marks an infrastructure failure surfaced to the caller.
	CodeInternal Code = "internal"
)

// Error carries a code, a human-readable message, and optionally the
// identifier of the offending entity (admin name, client id, role id).
type Error struct {
	Code    Code
	Message string
	Subject string
	cause   error
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Subject)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is / errors.As chains.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithSubject returns a copy of the error annotated with the offending
// identifier.
func (e *Error) WithSubject(subject string) *Error {
	clone := *e
	clone.Subject = subject
	return &clone
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code
	}
	return CodeInternal
}
