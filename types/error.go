package types

import "fmt"

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Provider error codes
const (
	ErrProviderTimeout     ErrorCode = "PROVIDER_TIMEOUT"
	ErrProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrProviderExhausted   ErrorCode = "PROVIDER_EXHAUSTED"
	ErrMalformedResponse   ErrorCode = "MALFORMED_RESPONSE"
	ErrAuthentication      ErrorCode = "AUTHENTICATION"
	ErrRateLimited         ErrorCode = "RATE_LIMITED"
	ErrUpstreamError       ErrorCode = "UPSTREAM_ERROR"
)

// Retrieval error codes
const (
	ErrDataNotLoaded   ErrorCode = "DATA_NOT_LOADED"
	ErrDataCorrupt     ErrorCode = "DATA_CORRUPT"
	ErrServiceNotReady ErrorCode = "SERVICE_NOT_READY"
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"
	ErrInternalError   ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the status the API layer should answer with.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithProvider tags the error with the provider that produced it.
func (e *Error) WithProvider(name string) *Error {
	e.Provider = name
	return e
}

// WithRetryable marks whether the operation may be retried.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable reports whether err is a *Error marked retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}
