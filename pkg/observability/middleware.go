package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MetricsMiddleware records one observation per request: a counter by
// method, status class, and route, a duration histogram by method and
// route, and an in-flight gauge covering the handler call.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		RequestsInFlight.Inc()
		defer RequestsInFlight.Dec()

		probe := &statusProbe{ResponseWriter: w}
		next.ServeHTTP(probe, r)

		route := routeLabel(r.URL.Path)
		RequestsTotal.WithLabelValues(r.Method, probe.class(), route).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routeLabel collapses request paths into a fixed set of route labels so
// per-key paths cannot blow up metric cardinality.
func routeLabel(path string) string {
	switch {
	case path == "/v1/session":
		return "/v1/session"
	case strings.HasPrefix(path, "/v1/prefs"):
		return "/v1/prefs"
	case strings.HasPrefix(path, "/v1/coach"):
		return "/v1/coach"
	case path == "/healthz", path == "/readyz", path == "/metrics":
		return path
	case path == "/mcp" || strings.HasPrefix(path, "/mcp/"):
		return "/mcp"
	}
	return "other"
}

// statusProbe records the first status code written so the request can be
// counted under its status class.
type statusProbe struct {
	http.ResponseWriter
	code int
}

func (p *statusProbe) WriteHeader(code int) {
	if p.code == 0 {
		p.code = code
	}
	p.ResponseWriter.WriteHeader(code)
}

// class reports the response status family ("2xx", "4xx", ...). A body
// written without an explicit WriteHeader counts as 2xx, matching
// net/http's implicit 200.
func (p *statusProbe) class() string {
	code := p.code
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code/100) + "xx"
}

// Flush forwards to the wrapped writer so streaming handlers keep working.
func (p *statusProbe) Flush() {
	if f, ok := p.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (p *statusProbe) Unwrap() http.ResponseWriter { return p.ResponseWriter }
