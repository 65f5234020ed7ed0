package prefs

import "fmt"

// DefaultNamespace prefixes storage keys when no other namespace is
// configured.
const DefaultNamespace = "coach"

// Scope selects which persistence class an entry belongs to.
type Scope string

const (
	// ScopeDevice is the durable scope: entries survive restarts and
	// re-authentication, like localStorage on a device.
	ScopeDevice Scope = "device"

	// ScopeSession is the ephemeral scope: entries live only as long as
	// the session that wrote them, like sessionStorage in a tab.
	ScopeSession Scope = "session"
)

// Valid reports whether s is one of the two known scopes.
func (s Scope) Valid() bool {
	return s == ScopeDevice || s == ScopeSession
}

// tag returns the scope's storage-key segment.
func (s Scope) tag() string {
	if s == ScopeSession {
		return "sec"
	}
	return "dev"
}

// ParseScope converts a path or config value into a Scope.
func ParseScope(raw string) (Scope, error) {
	switch Scope(raw) {
	case ScopeDevice:
		return ScopeDevice, nil
	case ScopeSession:
		return ScopeSession, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScope, raw)
}

// FullKey returns the storage key for a logical key: namespace, scope tag,
// and key joined with ':'. Durable entries carry the "dev" tag, ephemeral
// entries "sec":
//
//	FullKey("coach", ScopeDevice, "kcalTarget") = "coach:dev:kcalTarget"
//	FullKey("coach", ScopeSession, "activeTab") = "coach:sec:activeTab"
func FullKey(namespace string, scope Scope, key string) string {
	return namespace + ":" + scope.tag() + ":" + key
}

// maxKeyLength bounds logical keys.
const maxKeyLength = 200

// ValidateKey checks the key grammar: non-empty, at most maxKeyLength
// bytes, no whitespace or control characters.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: exceeds %d bytes", ErrInvalidKey, maxKeyLength)
	}
	for _, r := range key {
		if r <= 0x20 || r == 0x7f {
			return fmt.Errorf("%w: whitespace or control character", ErrInvalidKey)
		}
	}
	return nil
}
