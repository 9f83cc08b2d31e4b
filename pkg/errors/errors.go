// Package errors provides structured error types for tokensync.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, HTTP server and engine
//   - Machine-readable error codes that double as diagnostic kinds
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes come in two flavors. Operation-level codes (MALFORMED_DOCUMENT,
// ALIAS_STALLED, INVALID_INPUT, INTERNAL_ERROR) are returned as errors and
// abort a conversion. Entry-level codes (INVALID_COLOR, TYPE_MISMATCH,
// UNRESOLVED_ALIAS, ...) are reported through a diagnostics sink and never
// abort anything; the same Code value is used as the diagnostic kind so a
// caller can treat both uniformly.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedDocument, "root is %s, want object", kind)
//	if errors.Is(err, errors.ErrCodeMalformedDocument) {
//	    // Handle fatal document error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "create collection %q", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Operation-level failures
	ErrCodeMalformedDocument Code = "MALFORMED_DOCUMENT"
	ErrCodeAliasStalled      Code = "ALIAS_STALLED"
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"

	// Color errors
	ErrCodeInvalidColor          Code = "INVALID_COLOR"
	ErrCodeUnsupportedColorSpace Code = "UNSUPPORTED_COLOR_SPACE"
	ErrCodeMissingColorData      Code = "MISSING_COLOR_DATA"
	ErrCodeOutOfGamut            Code = "OUT_OF_GAMUT"

	// Entry-level errors
	ErrCodeTypeMismatch   Code = "TYPE_MISMATCH"
	ErrCodeInvalidName    Code = "INVALID_NAME"
	ErrCodeDuplicateToken Code = "DUPLICATE_TOKEN"
	ErrCodeNameConflict   Code = "NAME_CONFLICT"
	ErrCodeUnusable       Code = "UNUSABLE_TOKEN"

	// Context-level errors
	ErrCodeUnresolvedAlias Code = "UNRESOLVED_ALIAS"
	ErrCodeSelfAlias       Code = "SELF_ALIAS"

	// Informational
	ErrCodeStoreModeLimit Code = "STORE_MODE_LIMIT"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// IsFatal reports whether code aborts a whole conversion rather than a
// single entry or context.
func IsFatal(code Code) bool {
	switch code {
	case ErrCodeMalformedDocument, ErrCodeAliasStalled, ErrCodeInvalidInput,
		ErrCodeInvalidConfig, ErrCodeInternal:
		return true
	}
	return false
}

// IsInformational reports whether code describes a handled situation
// rather than a dropped entry or context.
func IsInformational(code Code) bool {
	return code == ErrCodeStoreModeLimit || code == ErrCodeDuplicateToken
}
