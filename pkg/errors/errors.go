// Package errors provides structured error types for scribe.
//
// Errors carry a machine-readable [Code] so that the CLI, the HTTP service and
// the synthesis pipeline agree on how a failure is classified:
//
//   - Data errors (MISSING_GLYPH, MALFORMED_GLYPH): a single character cannot be
//     rendered. The layout skips it and keeps going.
//   - Layout errors (LAYOUT_OVERFLOW): a word still exceeds the margins after a
//     wrap. Reported, never fatal.
//   - Kinematic errors (KINEMATIC_INVARIANT): a trajectory reached the feedrate
//     computation with a non-increasing timestamp. This is a composition defect
//     and aborts the run.
//   - Input errors (INVALID_*): bad configuration, font files or requests.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingGlyph, "no glyph for %q", r)
//	if errors.Is(err, errors.ErrCodeMissingGlyph) {
//	    // skip the character
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFont, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFont   Code = "INVALID_FONT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Data errors (recoverable, per character)
	ErrCodeMissingGlyph   Code = "MISSING_GLYPH"
	ErrCodeMalformedGlyph Code = "MALFORMED_GLYPH"

	// Layout errors (reported, never fatal)
	ErrCodeLayoutOverflow Code = "LAYOUT_OVERFLOW"

	// Kinematic errors (fatal)
	ErrCodeKinematic Code = "KINEMATIC_INVARIANT"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsDataError reports whether err is a recoverable per-character data error.
func IsDataError(err error) bool {
	switch GetCode(err) {
	case ErrCodeMissingGlyph, ErrCodeMalformedGlyph:
		return true
	}
	return false
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
