// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Series errors, recovered per instrument
	ErrMissingColumn       = &Error{Code: "MISSING_COLUMN", Message: "required series column missing"}
	ErrEmptySeries         = &Error{Code: "EMPTY_SERIES", Message: "no usable rows in series"}
	ErrUnsortedSeries      = &Error{Code: "UNSORTED_SERIES", Message: "series not sorted by time"}
	ErrNoQualifyingSegment = &Error{Code: "NO_QUALIFYING_SEGMENT", Message: "no zero-axis down-cross in history"}
	ErrNoData              = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrInstrumentNotFound  = &Error{Code: "INSTRUMENT_NOT_FOUND", Message: "instrument not found"}

	// Collector errors
	ErrCollectorFailed = &Error{Code: "COLLECTOR_FAILED", Message: "collector failed"}

	// Strategy errors
	ErrStrategyFailed  = &Error{Code: "STRATEGY_FAILED", Message: "strategy evaluation failed"}
	ErrUnknownStrategy = &Error{Code: "UNKNOWN_STRATEGY", Message: "strategy not registered"}

	// Storage and export errors
	ErrStorageFailed = &Error{Code: "STORAGE_FAILED", Message: "storage operation failed"}
	ErrExportFailed  = &Error{Code: "EXPORT_FAILED", Message: "export failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
