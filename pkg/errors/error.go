// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, configuration and order intents
//   - Data errors (200-299): Candle history, storage and query failures
//   - Indicator errors (300-399): Indicator warm-up and calculation errors
//   - Risk errors (400-499): Entry caps and position bookkeeping
//   - Exchange errors (500-599): Calls to the exchange and notification transports
//   - Backtest errors (600-699): Backtest engine setup and result writing
//   - Market data errors (700-799): Candle download and parsing errors
//
// Four codes form the runtime taxonomy the drivers act on:
//
//	ErrCodeInsufficientHistory       skip the tick, not fatal
//	ErrCodeRiskLimitExceeded         entry blocked by a cap, a no-op
//	ErrCodeInconsistentPositionState fatal, the live loop halts
//	ErrCodeExternalCallFailure       retried on the next tick
//
// Usage:
//
//	err := errors.New(errors.ErrCodeInvalidParameter, "invalid parameter value")
//	err := errors.Newf(errors.ErrCodeDataNotFound, "no candles for %s", symbol)
//	err := errors.Wrap(errors.ErrCodeExternalCallFailure, "get balance", originalErr)
//
//	if errors.IsFatal(err) { ... }
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

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
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

// hasCodeInChain walks the whole chain, not only the outermost *Error.
func hasCodeInChain(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}

		if e.Code == code {
			return true
		}

		err = e.Cause
	}

	return false
}

// IsFatal reports whether err is a position bookkeeping violation.
// The live loop must stop instead of trading against corrupted state.
func IsFatal(err error) bool {
	return hasCodeInChain(err, ErrCodeInconsistentPositionState)
}

// IsExternal reports whether err came from exchange, market data or notification I/O.
func IsExternal(err error) bool {
	return hasCodeInChain(err, ErrCodeExternalCallFailure) ||
		hasCodeInChain(err, ErrCodeOrderFailed) ||
		hasCodeInChain(err, ErrCodeNotificationFailed) ||
		hasCodeInChain(err, ErrCodeMarketDataFetchFailed)
}

// IsRiskLimit reports whether err is an entry blocked by a position or daily cap.
func IsRiskLimit(err error) bool {
	return hasCodeInChain(err, ErrCodeRiskLimitExceeded)
}

// IsInsufficientHistory reports whether err means indicators are still warming up.
func IsInsufficientHistory(err error) bool {
	return IsInsufficientDataError(err) || hasCodeInChain(err, ErrCodeInsufficientHistory)
}

// InsufficientDataError represents an error when there is not enough candle
// history for a calculation.
type InsufficientDataError struct {
	Required int    // Minimum candles required
	Actual   int    // Candles available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
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
