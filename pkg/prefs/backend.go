package prefs

import "context"

// Backend is the persistence substrate a scope is bound to. Implementations
// live under pkg/storage (memory, sqlite, postgres) and must be safe for
// concurrent use. Keys are opaque strings; values are raw bytes that the
// store layer treats as JSON.
type Backend interface {
	// Get returns the value stored under key.
	// Returns storage.ErrNotFound when nothing is stored.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	// Returns storage.ErrQuotaExceeded when the write does not fit the
	// backend's configured budget.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the value stored under key. Deleting an absent key
	// is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns every stored key that starts with prefix, in no
	// particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// HealthCheck verifies the backend is functional.
	HealthCheck(ctx context.Context) error

	// Close releases connections and resources.
	Close() error
}
