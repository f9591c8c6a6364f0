// Package errors provides error types and utilities for finscout.
// It extends the standard errors package with additional context and wrapping capabilities.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure scenarios
var (
	// ErrQuotaExhausted indicates the model provider rejected a call for rate-limit reasons
	ErrQuotaExhausted = errors.New("provider quota exhausted")

	// ErrNoResponse indicates the model produced no usable response after all retries
	ErrNoResponse = errors.New("no response from model")

	// ErrPageDead indicates a candidate URL answered 403/404 or was unreachable
	ErrPageDead = errors.New("page not found")

	// ErrInvalidResponse indicates a response could not be parsed or was malformed
	ErrInvalidResponse = errors.New("invalid response")

	// ErrExecutionFailed indicates a synthesized routine failed to run to completion
	ErrExecutionFailed = errors.New("generated code execution failed")

	// ErrInvalidInput indicates invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a requested resource was not found
	ErrNotFound = errors.New("resource not found")
)

// QuotaError wraps a provider rate-limit rejection together with the delay
// the provider suggested before retrying. RetryAfter of zero means the
// provider gave no hint and the caller should use its default backoff.
type QuotaError struct {
	RetryAfter time.Duration
	cause      error
}

// NewQuotaError creates a QuotaError with the suggested retry delay.
func NewQuotaError(retryAfter time.Duration, cause error) *QuotaError {
	return &QuotaError{RetryAfter: retryAfter, cause: cause}
}

func (e *QuotaError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%v: %v", ErrQuotaExhausted, e.cause)
	}
	return ErrQuotaExhausted.Error()
}

// Is makes QuotaError match ErrQuotaExhausted in errors.Is chains.
func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExhausted
}

func (e *QuotaError) Unwrap() error {
	return e.cause
}

// wrappedError wraps an error with additional context
type wrappedError struct {
	msg   string
	cause error
}

// Error implements the error interface
func (e *wrappedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap returns the underlying error
func (e *wrappedError) Unwrap() error {
	return e.cause
}

// Wrap wraps an error with additional context message.
// If err is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg:   msg,
		cause: err,
	}
}

// Wrapf wraps an error with a formatted context message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg:   fmt.Sprintf(format, args...),
		cause: err,
	}
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around errors.Is from the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type.
// This is a convenience wrapper around errors.As from the standard library.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New from the standard library.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf formats according to a format specifier and returns the string as a value that satisfies error.
// This is a convenience wrapper around fmt.Errorf from the standard library.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// IsQuotaExhausted reports whether the error is a provider rate-limit error
func IsQuotaExhausted(err error) bool {
	return Is(err, ErrQuotaExhausted)
}

// IsPageDead reports whether the error is a dead-page error
func IsPageDead(err error) bool {
	return Is(err, ErrPageDead)
}

// IsInvalidResponse reports whether the error is an invalid response error
func IsInvalidResponse(err error) bool {
	return Is(err, ErrInvalidResponse)
}

// RetryAfterOf extracts the provider-suggested retry delay from err's chain.
// Returns zero and false when err carries no QuotaError.
func RetryAfterOf(err error) (time.Duration, bool) {
	var qe *QuotaError
	if errors.As(err, &qe) {
		return qe.RetryAfter, true
	}
	return 0, false
}
