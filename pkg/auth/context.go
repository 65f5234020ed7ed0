package auth

import "context"

type identityKey struct{}

// SetIdentity returns a context carrying the authenticated identity.
func SetIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity the middleware stored, or nil
// on an unauthenticated context.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
