// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Fatal errors: these abort the whole run.
	ErrAuthentication = errors.New("authentication failed")
	ErrConfiguration  = errors.New("invalid configuration")

	// Transient errors: recovered by skipping the affected student/event.
	ErrDataSource = errors.New("data source error")

	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidEntity = errors.New("invalid entity")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrInvalidFormat = errors.New("invalid format")
	ErrInvalidPeriod = errors.New("invalid period")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "classifier", "paraplan", "report"
	Op      string // Operation that failed, e.g., "ListStudents"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Paraplan API errors
var (
	ErrParaplanAuth            = NewDomainError("paraplan", "Login", ErrAuthentication, "could not log in to Paraplan CRM")
	ErrParaplanCSRF            = NewDomainError("paraplan", "Login", ErrAuthentication, "could not obtain CSRF token")
	ErrParaplanUnavailable     = NewDomainError("paraplan", "Request", ErrServiceUnavailable, "Paraplan API is unavailable")
	ErrParaplanRateLimited     = NewDomainError("paraplan", "Request", ErrRateLimited, "Paraplan API rate limit exceeded")
	ErrParaplanInvalidResponse = NewDomainError("paraplan", "Parse", ErrInvalidFormat, "invalid response from Paraplan API")
)

// Report delivery errors
var (
	ErrTelegramSendFailed = NewDomainError("telegram", "SendDocument", ErrExternalService, "Telegram API request failed")
	ErrReportWriteFailed  = NewDomainError("report", "Write", ErrExternalService, "failed to write report file")
)

// IsFatal reports whether the error must abort the whole run.
// Authentication and configuration errors are never retried or skipped.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuthentication) || errors.Is(err, ErrConfiguration)
}

// IsTransient reports whether the error is recoverable by skipping the
// affected student or event and continuing classification.
func IsTransient(err error) bool {
	return !IsFatal(err) &&
		(errors.Is(err, ErrDataSource) ||
			errors.Is(err, ErrServiceUnavailable) ||
			errors.Is(err, ErrTimeout) ||
			errors.Is(err, ErrRateLimited) ||
			errors.Is(err, ErrInvalidFormat))
}

// IsRetryable reports whether a failed request may be retried with backoff.
func IsRetryable(err error) bool {
	return !IsFatal(err) &&
		(errors.Is(err, ErrServiceUnavailable) ||
			errors.Is(err, ErrTimeout) ||
			errors.Is(err, ErrRateLimited))
}
