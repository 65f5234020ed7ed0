package storage

import "context"

// Actor identifies who owns the keyspaces touched by a request. The user
// owns durable device-scope entries; the session owns ephemeral
// session-scope entries. A zero Actor selects the shared keyspace
// (single-client mode).
type Actor struct {
	UserID    string
	SessionID string
}

// IsZero reports whether no owner is set.
func (a Actor) IsZero() bool {
	return a.UserID == "" && a.SessionID == ""
}

// actorKey is a private type for the actor context key, preventing
// collisions with other packages.
type actorKey struct{}

// SetActor injects the keyspace owner into the context.
func SetActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// GetActor extracts the keyspace owner from the context.
// Returns the zero Actor if none is set (single-client mode).
func GetActor(ctx context.Context) Actor {
	if v, ok := ctx.Value(actorKey{}).(Actor); ok {
		return v
	}
	return Actor{}
}
