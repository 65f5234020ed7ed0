// Package storage provides utilities shared across storage backend
// implementations, including sentinel errors and actor context helpers.
//
// Storage backends (memory, sqlite, postgres) implement the prefs.Backend
// interface defined in pkg/prefs/backend.go. This package contains only
// shared types and helpers, not the interface itself.
package storage
