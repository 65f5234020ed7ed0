package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/vorrat-dev/vorrat/pkg/debug"
)

// AuthDecision is one authenticator's vote on a request.
type AuthDecision int

const (
	// Yes accepts the request; the vote carries the caller's identity.
	Yes AuthDecision = iota

	// No rejects the request: the credentials were meant for this
	// authenticator and they did not check out.
	No

	// Abstain passes: the request carries no credentials this
	// authenticator understands.
	Abstain
)

func (d AuthDecision) String() string {
	switch d {
	case Yes:
		return "yes"
	case No:
		return "no"
	case Abstain:
		return "abstain"
	}
	return "unknown"
}

// AuthResult carries one vote. Identity is set only on Yes, Err only on No.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity
	Err      error
}

// Identity describes an authenticated caller: a Telegram user, a session
// holder, or a configured service key.
type Identity struct {
	// Subject uniquely names the caller, e.g. "tg:123456" or "svc:reports".
	Subject string

	// ServiceTier selects the caller's rate-limit budget.
	ServiceTier string

	// Metadata carries authenticator-specific details. Two keys scope the
	// preference keyspaces: "user_id" owns the device scope, "session_id"
	// owns the session scope.
	Metadata map[string]string
}

// UserID returns the device-scope owner, or "" when the caller has none.
func (id *Identity) UserID() string {
	if id == nil {
		return ""
	}
	return id.Metadata["user_id"]
}

// SessionID returns the session-scope owner, or "" when the caller has none.
func (id *Identity) SessionID() string {
	if id == nil {
		return ""
	}
	return id.Metadata["session_id"]
}

// Authenticator inspects a request's credentials and votes.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// AuthChain asks each authenticator in turn and returns the first real
// vote. Order decides ownership of shared credential shapes: telegram
// takes the tma scheme, session takes JWT-shaped Bearer tokens, apikey
// takes opaque ones.
type AuthChain struct {
	Authenticators []Authenticator

	// DefaultDecision applies when every authenticator abstains.
	// Production chains close with No; the dev chain runs a noop
	// authenticator rather than relying on Yes here.
	DefaultDecision AuthDecision
}

// Authenticate runs the chain, stopping at the first Yes or No.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for i, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision == Abstain {
			continue
		}
		debug.Log("auth", "vote", "index", i, "decision", result.Decision)
		return result
	}

	if c.DefaultDecision == Yes {
		return AuthResult{
			Decision: Yes,
			Identity: &Identity{Subject: "anonymous", ServiceTier: "default"},
		}
	}
	return AuthResult{Decision: No, Err: ErrUnauthenticated}
}
