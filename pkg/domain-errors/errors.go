// Package domainerrors provides code-carrying errors for the registration
// domain. Services return these; transports translate codes to wire status.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeNotFound signals that a referenced id (attendee, ticket, package,
	// registration) does not exist in its store.
	CodeNotFound Code = "not_found"
	// CodeConflict signals that the operation would violate a uniqueness
	// invariant, e.g. adding a second partner to the same attendee.
	CodeConflict Code = "conflict"
	// CodeInvalidState signals an operation invoked outside its allowed
	// precondition, e.g. adding a primary when one already exists.
	CodeInvalidState Code = "invalid_state"
	// CodeInvalidInput signals malformed caller input (bad uuid, zero quantity).
	CodeInvalidInput Code = "invalid_input"
	// CodeValidation signals a step-transition validator rejected the current
	// data. The error carries accumulated field-level messages.
	CodeValidation Code = "validation_failed"
	// CodeInternal signals an unexpected infrastructure failure.
	CodeInternal Code = "internal_error"
)

// Error is the concrete domain error. Use New/Wrap instead of constructing it
// directly.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeInternal when err carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
