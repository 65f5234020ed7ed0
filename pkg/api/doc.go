// Package api defines the wire types for the vorrat preference service.
//
// This package provides all data types exchanged over the HTTP and MCP
// surfaces: preference envelopes, session and user types, the coach
// domain payloads (meals, plans, goals, profile, dashboard), error types,
// request validation, and ID generation.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O. Stored preference values travel as json.RawMessage so the
// service never re-encodes what a client wrote.
//
// Core types:
//   - [Preference]: One stored entry (scope, key, raw JSON value)
//   - [Session]: Minted session with its bearer token
//   - [Meal], [Plan], [Goal], [Profile], [Dashboard]: coach payloads
//   - [APIError]: Structured error with type, code, param, and message
package api
