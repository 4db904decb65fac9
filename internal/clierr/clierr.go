// Package clierr defines structured error types shared by the synchronizer,
// the remote client and the CLI. Errors carry a machine-readable code, a
// human-readable message, optional details and an optional cause.
package clierr

import (
	"errors"
	"fmt"
	"strconv"
)

// Error code constants. Uppercase, underscore-separated, stable across minor versions.
const (
	TaskNotFound    = "TASK_NOT_FOUND"
	BoardNotFound   = "BOARD_NOT_FOUND"
	InvalidInput    = "INVALID_INPUT"
	InvalidStatus   = "INVALID_STATUS"
	InvalidDate     = "INVALID_DATE"
	StatusConflict  = "STATUS_CONFLICT"
	NoChanges       = "NO_CHANGES"
	ConfirmationReq = "CONFIRMATION_REQUIRED"
	AuthRequired    = "AUTH_REQUIRED"
	TransportError  = "TRANSPORT_ERROR"
	ValidationError = "VALIDATION_ERROR"
	InternalError   = "INTERNAL_ERROR"
)

// Error represents a structured error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same code, so callers can
// write errors.Is(err, clierr.New(clierr.AuthRequired, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that records cause for errors.Unwrap.
func Wrap(code string, cause error, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// ExitCode returns 2 for InternalError, 1 for all others.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2 //nolint:mnd // exit code 2 for internal errors
	}
	return 1
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return CodeOf(err) == code
}

// SilentError signals an exit code without additional output.
// Used by batch operations where results are already written to stdout.
type SilentError struct {
	Code int
}

// Error implements the error interface.
func (e *SilentError) Error() string { return "exit " + strconv.Itoa(e.Code) }
