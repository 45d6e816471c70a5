// Package errors defines stable error codes for all lorebook failure modes.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidQuery indicates an out-of-domain query parameter
	InvalidQuery ErrorCode = "INVALID_QUERY"
	// ScopeFailed indicates one scope's assembly aborted
	ScopeFailed ErrorCode = "SCOPE_FAILED"
	// VaultUnreadable indicates the note vault could not be loaded
	VaultUnreadable ErrorCode = "VAULT_UNREADABLE"
	// ExportFailed indicates the lorebook export could not be written
	ExportFailed ErrorCode = "EXPORT_FAILED"
	// StorageFailed indicates a corpus database operation failed
	StorageFailed ErrorCode = "STORAGE_FAILED"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// LorebookError represents an engine error with a stable code
type LorebookError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new LorebookError
func New(code ErrorCode, message string, cause error) *LorebookError {
	return &LorebookError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Invalidf creates an InvalidQuery error with a formatted message
func Invalidf(format string, args ...interface{}) *LorebookError {
	return &LorebookError{
		Code:    InvalidQuery,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *LorebookError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *LorebookError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *LorebookError) WithDetails(details interface{}) *LorebookError {
	e.Details = details
	return e
}

// CodeOf returns the stable code carried by err, or InternalError if err is
// not a LorebookError.
func CodeOf(err error) ErrorCode {
	var le *LorebookError
	if errors.As(err, &le) {
		return le.Code
	}
	return InternalError
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
