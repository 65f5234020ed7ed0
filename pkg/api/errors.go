package api

import "fmt"

// ErrorType buckets API failures for clients. The wire strings are part of
// the API contract.
type ErrorType string

const (
	ErrorTypeServerError        ErrorType = "server_error"
	ErrorTypeInvalidRequest     ErrorType = "invalid_request"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeStorageUnavailable ErrorType = "storage_unavailable"
	ErrorTypeQuotaExceeded      ErrorType = "quota_exceeded"
	ErrorTypeUnauthenticated    ErrorType = "unauthenticated"
	ErrorTypeTooManyRequests    ErrorType = "too_many_requests"
)

// APIError is the error payload every failing endpoint returns. Param
// names the offending input when there is one.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse is the top-level JSON envelope for errors.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError flags a bad input; param names it.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{Type: ErrorTypeInvalidRequest, Param: param, Message: message}
}

// NewNotFoundError reports an absent preference or resource.
func NewNotFoundError(message string) *APIError {
	return &APIError{Type: ErrorTypeNotFound, Message: message}
}

// NewServerError reports an internal failure without leaking detail.
func NewServerError(message string) *APIError {
	return &APIError{Type: ErrorTypeServerError, Message: message}
}

// NewStorageUnavailableError reports a backend outage.
func NewStorageUnavailableError(message string) *APIError {
	return &APIError{Type: ErrorTypeStorageUnavailable, Message: message}
}

// NewQuotaExceededError reports a write rejected by a storage budget.
func NewQuotaExceededError(message string) *APIError {
	return &APIError{Type: ErrorTypeQuotaExceeded, Message: message}
}

// NewUnauthenticatedError reports missing or invalid credentials.
func NewUnauthenticatedError(message string) *APIError {
	return &APIError{Type: ErrorTypeUnauthenticated, Message: message}
}

// NewTooManyRequestsError reports an exhausted rate-limit budget.
func NewTooManyRequestsError(message string) *APIError {
	return &APIError{Type: ErrorTypeTooManyRequests, Message: message}
}
