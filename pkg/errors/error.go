// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, configuration and versions
//   - Data/Resource errors (200-299): Missing bars, failed queries, look-ahead reads
//   - Strategy errors (400-499): Binding, missing implementations and contract violations
//   - Run errors (600-699): Run setup, event stream and signal recording failures
//   - Market data errors (700-799): Market data fetching and writing errors
//
// Binding and implementation defects are never retried. Callers wrap them with the strategy
// and symbol that failed using NewBindingError so that the run can report which binding broke.
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeInvalidBinding, "symbol %q is not served by the data source", symbol)
//
//	if errors.HasCode(err, errors.ErrCodeNotImplemented) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode of the first *Error in the chain.
// Returns ErrCodeUnknown if there is none.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError represents an error when there is not enough history
// for a calculation (e.g., a lookback window longer than the bars seen so far).
type InsufficientDataError struct {
	Required int    // Minimum bars required
	Actual   int    // Bars available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}

// BindingError attaches the strategy and symbol of a binding to the error that broke it.
type BindingError struct {
	Strategy string
	Symbol   string
	Cause    error
}

// NewBindingError wraps cause with the failing strategy/symbol binding.
func NewBindingError(strategy, symbol string, cause error) *BindingError {
	return &BindingError{
		Strategy: strategy,
		Symbol:   symbol,
		Cause:    cause,
	}
}

// Error implements the error interface.
func (e *BindingError) Error() string {
	return fmt.Sprintf("strategy %s bound to %q: %v", e.Strategy, e.Symbol, e.Cause)
}

// Unwrap returns the underlying error cause.
func (e *BindingError) Unwrap() error {
	return e.Cause
}
