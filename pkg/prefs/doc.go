// Package prefs implements the namespaced preference store: small
// JSON-encoded values persisted under two scopes with different lifetimes.
// The device scope is durable; the session scope lives and dies with the
// session that wrote it.
//
// The package offers two surfaces over the same backends:
//
// The facade never fails. Get returns the caller's fallback on absent
// keys, corrupt stored values, and backend outages; Set swallows every
// failure. Both log and count what they swallowed. This is the contract
// feature code wants: reading a preference is never the thing that
// breaks a request.
//
//	target := prefs.Get(ctx, store, prefs.ScopeDevice, "kcalTarget", 2000)
//	store.Set(ctx, prefs.ScopeDevice, "kcalTarget", 1800)
//
// The raw API (Lookup, Put, Drop, List) surfaces errors so transports can
// map them: storage.ErrNotFound for absent keys, ErrMalformed for corrupt
// values, storage.ErrQuotaExceeded and storage.ErrUnavailable from the
// backend.
//
// Storage keys follow a fixed grammar: "<namespace>:dev:<key>" for the
// device scope and "<namespace>:sec:<key>" for the session scope. When the
// context carries a storage.Actor, keys are further prefixed with the
// owning user (device) or session (session) so keyspaces stay disjoint.
package prefs
