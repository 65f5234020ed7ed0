// Package noop holds the development authenticator. It waves every request
// through as one shared anonymous caller, which leaves the request context
// without an actor: all preferences land in the single ownerless keyspace.
package noop

import (
	"context"
	"net/http"

	"github.com/vorrat-dev/vorrat/pkg/auth"
)

// Authenticator votes Yes on everything.
type Authenticator struct{}

var _ auth.Authenticator = (*Authenticator)(nil)

func (a *Authenticator) Authenticate(context.Context, *http.Request) auth.AuthResult {
	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: "anonymous", ServiceTier: "default"},
	}
}
