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
	// Input errors
	ErrUnsupportedAsset = &Error{Code: "UNSUPPORTED_ASSET", Message: "asset is not supported"}
	ErrNotFound         = &Error{Code: "NOT_FOUND", Message: "resource not found"}
	ErrBadRequest       = &Error{Code: "BAD_REQUEST", Message: "invalid request"}
	ErrUnauthorized     = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid API key"}

	// Data source errors
	ErrRateLimited = &Error{Code: "RATE_LIMITED", Message: "upstream rate limit hit"}
	ErrFetchFailed = &Error{Code: "FETCH_FAILED", Message: "data fetch failed"}

	// Engine errors
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for analysis"}

	// Model errors
	ErrTrainingFailed  = &Error{Code: "TRAINING_FAILED", Message: "model training failed"}
	ErrModelNotTrained = &Error{Code: "MODEL_NOT_TRAINED", Message: "model has not been trained"}

	// Sentiment errors (absorbed internally, never surfaced to callers)
	ErrSentimentUnavailable = &Error{Code: "SENTIMENT_UNAVAILABLE", Message: "sentiment data unavailable"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// LLM errors
	ErrLLMFailed = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
)
