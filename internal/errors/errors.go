package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrTypeValidation        ErrorType = "validation"
	ErrTypeStorage           ErrorType = "storage"
	ErrTypeDecryption        ErrorType = "decryption"
	ErrTypeUnsupportedFilter ErrorType = "unsupported_filter"
	ErrTypeSchema            ErrorType = "schema"
	ErrTypeConfig            ErrorType = "config"
	ErrTypeNotFound          ErrorType = "not_found"
	ErrTypeInternal          ErrorType = "internal"
)

// Error represents a structured error with type and optional suggestions
type Error struct {
	Type        ErrorType
	Message     string
	Cause       error
	Suggestions []string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithSuggestion adds a suggestion for resolving the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// New creates a new structured error
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new structured error with formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type == errType
	}

	return false
}

// GetType returns the error type if it's a structured error
func GetType(err error) ErrorType {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type
	}

	return ErrTypeInternal
}

// NewValidationError creates a validation error for a missing or malformed column value
func NewValidationError(table, column, reason string) *Error {
	return Newf(ErrTypeValidation, "table %q column %q: %s", table, column, reason).
		WithSuggestion("Check the payload against the table's parsed columns")
}

// NewUnsupportedFilterError creates an error for a filter on an encryption-eligible column
func NewUnsupportedFilterError(table, column string) *Error {
	return Newf(
		ErrTypeUnsupportedFilter,
		"table %q column %q is encrypted; equality filters against non-deterministic ciphertext never match",
		table, column,
	).
		WithSuggestion("Filter on an unencrypted column and compare plaintext client-side").
		WithSuggestion("Store a separate deterministic hash column if lookups by this value are required")
}

// NewConfigError creates a configuration error with suggestions
func NewConfigError(message, field string) *Error {
	err := New(ErrTypeConfig, message)
	if field != "" {
		err.Message = fmt.Sprintf("%s (field: %s)", message, field)
	}

	return err.
		WithSuggestion("Check your configuration file syntax").
		WithSuggestion("Run with --help to see valid configuration options")
}
