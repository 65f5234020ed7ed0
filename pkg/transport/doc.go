// Package transport defines the service contracts and middleware chain for
// the vorrat HTTP transport layer.
//
// The transport layer bridges external clients and the in-process services.
// It deserializes incoming requests into the wire types defined in pkg/api,
// dispatches them, and serializes the results back as JSON.
//
// # Service Contracts
//
// Three interfaces define what the HTTP adapter dispatches to:
//
//   - PreferenceAPI is the raw store surface under /v1/prefs, where
//     storage errors surface with full fidelity.
//   - CoachService is the application surface under /v1/coach.
//   - SessionService exchanges Telegram initData for session tokens.
//
// # Middleware
//
// Middleware wraps http.Handler with cross-cutting concerns. Built-in
// middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog. Authentication and
// metrics middleware come from pkg/auth and pkg/observability.
//
// # Error Mapping
//
// AsAPIError converts storage and preference sentinels into the wire
// error taxonomy; WriteError emits the {"error":{...}} envelope with the
// status code derived from the error type.
package transport
