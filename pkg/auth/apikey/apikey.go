// Package apikey authenticates service callers by static API key.
//
// Keys arrive as Bearer tokens. Session JWTs share that scheme, so tokens
// containing dots are left to the session authenticator; keys therefore
// must not contain dots. Only SHA-256 hashes of the configured keys are
// kept in memory, and comparison is constant time.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/vorrat-dev/vorrat/pkg/auth"
)

// RawKeyEntry pairs one plaintext key with the identity it grants. It is
// the shape keys take in configuration.
type RawKeyEntry struct {
	Key      string
	Identity auth.Identity
}

type hashedKey struct {
	sum      [sha256.Size]byte
	identity auth.Identity
}

// Authenticator validates Bearer tokens against the configured key set.
type Authenticator struct {
	keys []hashedKey
}

var _ auth.Authenticator = (*Authenticator)(nil)

// New hashes the configured keys and returns an authenticator over them.
// Plaintext keys are not retained.
func New(entries []RawKeyEntry) *Authenticator {
	a := &Authenticator{keys: make([]hashedKey, 0, len(entries))}
	for _, e := range entries {
		a.keys = append(a.keys, hashedKey{
			sum:      sha256.Sum256([]byte(e.Key)),
			identity: e.Identity,
		})
	}
	return a
}

// Authenticate votes Yes for a known key, No for an unknown opaque Bearer
// token, and Abstain for anything that is not an opaque Bearer token
// (missing header, other schemes, JWT-shaped tokens).
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || strings.Contains(token, ".") {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	sum := sha256.Sum256([]byte(token))
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare(sum[:], k.sum[:]) == 1 {
			id := k.identity
			return auth.AuthResult{Decision: auth.Yes, Identity: &id}
		}
	}
	return auth.AuthResult{Decision: auth.No, Err: auth.ErrUnauthenticated}
}
