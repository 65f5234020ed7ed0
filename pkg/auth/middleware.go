package auth

import (
	"log/slog"
	"net/http"

	"github.com/vorrat-dev/vorrat/pkg/observability"
	"github.com/vorrat-dev/vorrat/pkg/storage"
)

// DefaultBypassEndpoints skip authentication: the probes and the metrics
// scrape.
var DefaultBypassEndpoints = []string{"/healthz", "/readyz", "/metrics"}

// Middleware puts the chain and optional limiter in front of a handler.
// Requests that pass continue with two context additions: the caller's
// Identity and the storage actor derived from it, which keeps preference
// keyspaces disjoint per user and per session.
func Middleware(chain *AuthChain, limiter RateLimiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)
			if result.Decision != Yes || result.Identity == nil {
				if result.Err != nil {
					slog.Warn("authentication failed",
						"path", r.URL.Path,
						"remote_addr", r.RemoteAddr,
						"error", result.Err,
					)
				}
				reject(w, http.StatusUnauthorized,
					`{"error":{"type":"unauthenticated","message":"authentication required"}}`)
				return
			}
			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				reject(w, http.StatusInternalServerError,
					`{"error":{"type":"server_error","message":"internal authentication error"}}`)
				return
			}

			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded",
						"subject", result.Identity.Subject,
						"tier", result.Identity.ServiceTier,
					)
					observability.RateLimitRejectedTotal.WithLabelValues(result.Identity.ServiceTier).Inc()
					reject(w, http.StatusTooManyRequests,
						`{"error":{"type":"too_many_requests","message":"rate limit exceeded"}}`)
					return
				}
			}

			ctx := SetIdentity(r.Context(), result.Identity)
			actor := storage.Actor{
				UserID:    result.Identity.UserID(),
				SessionID: result.Identity.SessionID(),
			}
			if !actor.IsZero() {
				ctx = storage.SetActor(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// reject writes a canned JSON error. The bodies mirror the api error
// envelope so clients decode middleware and handler failures alike.
func reject(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
