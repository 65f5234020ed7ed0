package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when no value is stored under a key.
	ErrNotFound = errors.New("key not found")

	// ErrQuotaExceeded is returned when a write would exceed the backend's
	// configured size budget.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrUnavailable is returned when the backend cannot be reached or has
	// been closed.
	ErrUnavailable = errors.New("storage unavailable")
)
