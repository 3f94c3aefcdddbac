package models

import (
	"errors"
	"time"
)

// Error codes. Every failure surfaced by Send carries one of these.
// RateLimit, ServerError, Timeout and Connection are subkinds of a provider error.
const (
	ErrCodeAuthentication = "authentication_error"
	ErrCodeInvalidRequest = "invalid_request_error"
	ErrCodeProvider       = "provider_error"
	ErrCodeRateLimit      = "rate_limit_exceeded"
	ErrCodeServerError    = "server_error"
	ErrCodeTimeout        = "timeout"
	ErrCodeConnection     = "connection_error"
)

// APIError is the typed error returned by transports and the client facade.
// Use the IsXxx helpers to classify it.
type APIError struct {
	Code       string
	Message    string
	StatusCode int           // HTTP status, 0 when no response was received
	RetryAfter time.Duration // from a Retry-After header, if any
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAuthenticationError reports missing or rejected credentials
func NewAuthenticationError(message string, err error) *APIError {
	return &APIError{Code: ErrCodeAuthentication, Message: message, Err: err}
}

// NewInvalidRequestError reports malformed caller input
func NewInvalidRequestError(message string) *APIError {
	return &APIError{Code: ErrCodeInvalidRequest, Message: message}
}

// NewProviderError reports a downstream failure
func NewProviderError(code, message string, err error) *APIError {
	return &APIError{Code: code, Message: message, Err: err}
}

// IsAuthenticationError reports whether err is a credential failure
func IsAuthenticationError(err error) bool {
	return hasCode(err, ErrCodeAuthentication)
}

// IsInvalidRequestError reports whether err was caused by malformed input
func IsInvalidRequestError(err error) bool {
	return hasCode(err, ErrCodeInvalidRequest)
}

// IsProviderError reports whether err is a downstream failure of any subkind
func IsProviderError(err error) bool {
	return hasCode(err, ErrCodeProvider, ErrCodeRateLimit, ErrCodeServerError, ErrCodeTimeout, ErrCodeConnection)
}

// IsRetryable reports whether the call may succeed if repeated
func IsRetryable(err error) bool {
	return hasCode(err, ErrCodeRateLimit, ErrCodeServerError, ErrCodeTimeout, ErrCodeConnection)
}

func hasCode(err error, codes ...string) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	for _, c := range codes {
		if ae.Code == c {
			return true
		}
	}
	return false
}
