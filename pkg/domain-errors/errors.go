// Package domainerrors defines the coded error taxonomy shared by services
// and the HTTP layer. Stores return infrastructure sentinels; services
// translate them into these coded errors so handlers can map a code to a
// status without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks missing or malformed business fields
	// (absent buyer name, fewer than two witnesses).
	CodeValidation Code = "validation"

	// CodeInvalidTransition marks an illegal stage jump or an unmet
	// gating requirement.
	CodeInvalidTransition Code = "invalid_transition"

	// CodeTerminalState marks a mutation attempted against a completed,
	// cancelled, or rejected record.
	CodeTerminalState Code = "terminal_state"

	// CodeNotFound marks an unknown transfer or property reference.
	CodeNotFound Code = "not_found"

	// CodeUnauthorized marks an actor lacking the role a stage requires.
	CodeUnauthorized Code = "unauthorized"

	// CodeConflict marks an optimistic-concurrency version mismatch;
	// callers re-read and retry.
	CodeConflict Code = "conflict"

	// CodeUnavailable marks a dependency outage. Anchor submissions use it
	// internally; it never surfaces through the operation API.
	CodeUnavailable Code = "unavailable"

	// CodeBadRequest marks a malformed request envelope.
	CodeBadRequest Code = "bad_request"

	// CodeInternal marks everything else. Descriptions are suppressed on
	// the wire for this code.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It keeps a human-readable message and an
// optional wrapped cause for logging.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or CodeInternal when err is not a
// coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
