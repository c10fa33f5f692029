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

// WrapErrorf wraps base with a formatted cause. Every failure surfaced to a
// caller must say which ticker, which window, or which threshold was not met;
// this is the helper that keeps that cheap to do.
func WrapErrorf(base *Error, format string, args ...any) *Error {
	return WrapError(base, fmt.Errorf(format, args...))
}

// Predefined errors
var (
	// Data errors
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient observations for analysis"}
	ErrNoUpstreamData   = &Error{Code: "NO_UPSTREAM_DATA", Message: "provider returned no data for this ticker/window"}
	ErrEmptyReturns     = &Error{Code: "EMPTY_RETURN_SERIES", Message: "derived return series is empty"}

	// Provider errors
	ErrMalformedResponse = &Error{Code: "MALFORMED_RESPONSE", Message: "provider response shape not usable"}
	ErrUnreachable       = &Error{Code: "UPSTREAM_UNREACHABLE", Message: "provider unreachable"}
	ErrFetchFailed       = &Error{Code: "FETCH_FAILED", Message: "fetch failed after all retry attempts"}

	// Estimator errors
	ErrEstimatorUnavailable = &Error{Code: "ESTIMATOR_UNAVAILABLE", Message: "adaptive estimator unavailable"}

	// Cache errors. A key collision means two different requests hashed to
	// the same entry; it is unrecoverable and allowed to propagate as fatal.
	ErrCacheKeyCollision = &Error{Code: "CACHE_KEY_COLLISION", Message: "cache key collision"}

	// History errors
	ErrEvaluationNotFound = &Error{Code: "EVALUATION_NOT_FOUND", Message: "evaluation not found"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// LLM errors
	ErrLLMFailed  = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
	ErrLLMTimeout = &Error{Code: "LLM_TIMEOUT", Message: "LLM request timeout"}

	// Notifier errors
	ErrNotifierFailed = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}
)
