package prefs

import "errors"

// Sentinel errors for preference operations. Backend-side conditions
// (absent key, quota, outage) use the pkg/storage sentinels instead.
var (
	// ErrInvalidKey is returned when a key fails the key grammar.
	ErrInvalidKey = errors.New("invalid preference key")

	// ErrInvalidScope is returned for scopes other than device and session.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrInvalidValue is returned when a caller-supplied value is not valid
	// JSON or cannot be encoded as JSON.
	ErrInvalidValue = errors.New("value is not valid JSON")

	// ErrMalformed is returned when a stored value cannot be decoded.
	ErrMalformed = errors.New("malformed stored value")
)
