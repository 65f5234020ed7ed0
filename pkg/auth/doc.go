// Package auth authenticates requests to the preference store.
//
// Three credential types reach the server: Telegram WebApp init data (the
// tma scheme), session JWTs minted by this server, and static API keys for
// service callers. Each has an authenticator in a subpackage; a chain asks
// them in order and each votes Yes, No, or Abstain, so an authenticator
// only ever judges credentials meant for it.
//
// The Middleware runs the chain, enforces per-tier rate limits, and puts
// two things into the request context: the caller's Identity and the
// storage actor derived from it, which keeps preference keyspaces disjoint
// per user (device scope) and per session (session scope).
package auth
