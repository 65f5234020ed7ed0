package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vorrat-dev/vorrat/pkg/api"
	"github.com/vorrat-dev/vorrat/pkg/prefs"
	"github.com/vorrat-dev/vorrat/pkg/storage"
)

// statusByType fixes the HTTP status for each error type in the wire
// taxonomy. Transport-level failures (oversized body, wrong content type,
// bad method) never reach this table; the adapter answers those directly.
var statusByType = map[api.ErrorType]int{
	api.ErrorTypeInvalidRequest:     http.StatusBadRequest,
	api.ErrorTypeNotFound:           http.StatusNotFound,
	api.ErrorTypeQuotaExceeded:      http.StatusRequestEntityTooLarge,
	api.ErrorTypeStorageUnavailable: http.StatusServiceUnavailable,
	api.ErrorTypeUnauthenticated:    http.StatusUnauthorized,
	api.ErrorTypeTooManyRequests:    http.StatusTooManyRequests,
	api.ErrorTypeServerError:        http.StatusInternalServerError,
}

// HTTPStatusFromError picks the HTTP status code for an API error.
// Unknown types count as server errors.
func HTTPStatusFromError(err *api.APIError) int {
	if status, ok := statusByType[err.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// AsAPIError converts any error into the wire taxonomy. Storage and
// preference sentinels map onto their error types; everything else,
// including a stored value the service itself cannot decode, becomes a
// server error.
func AsAPIError(err error) *api.APIError {
	var apiErr *api.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, storage.ErrNotFound):
		return api.NewNotFoundError(err.Error())
	case errors.Is(err, storage.ErrQuotaExceeded):
		return api.NewQuotaExceededError(err.Error())
	case errors.Is(err, storage.ErrUnavailable):
		return api.NewStorageUnavailableError(err.Error())
	case errors.Is(err, prefs.ErrInvalidKey):
		return api.NewInvalidRequestError("key", err.Error())
	case errors.Is(err, prefs.ErrInvalidScope):
		return api.NewInvalidRequestError("scope", err.Error())
	case errors.Is(err, prefs.ErrInvalidValue):
		return api.NewInvalidRequestError("value", err.Error())
	default:
		return api.NewServerError(err.Error())
	}
}

// WriteErrorResponse sends apiErr as a JSON error envelope with the given
// status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteAPIError sends apiErr with the status code its type maps to.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}

// WriteError maps any error through AsAPIError and sends it.
func WriteError(w http.ResponseWriter, err error) {
	WriteAPIError(w, AsAPIError(err))
}
