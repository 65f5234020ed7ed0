package transport

import "net/http"

// Middleware wraps an http.Handler with cross-cutting behavior. The first
// middleware in a chain is outermost: it sees the request first and the
// response last.
type Middleware func(http.Handler) http.Handler

// Chain folds several middleware into one, preserving order:
// Chain(a, b, c) wraps a around b around c.
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
