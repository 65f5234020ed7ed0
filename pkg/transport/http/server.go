package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vorrat-dev/vorrat/pkg/transport"
)

// Server owns the HTTP lifecycle around an Adapter: it assembles the
// middleware chain, listens, and drains in-flight requests on shutdown.
type Server struct {
	httpServer *http.Server
	adapter    *Adapter
	config     ServerConfig
	logger     *slog.Logger
}

// ServerConfig collects the knobs a deployment tunes. Zero values fall
// back to the defaults set in NewServer.
type ServerConfig struct {
	Addr            string
	MaxBodySize     int64
	ShutdownTimeout time.Duration

	// Metrics and MCP are optional handlers mounted at /metrics and /mcp.
	Metrics http.Handler
	MCP     http.Handler

	// Middleware runs inside the built-in chain (recovery, request ID,
	// logging), so authentication and metrics middleware see the request ID.
	Middleware []transport.Middleware
}

// NewServer builds a server around the given services. The coach and
// session services may be nil for a preferences-only deployment; the
// adapter answers 501 for their routes in that case.
func NewServer(store transport.PreferenceAPI, coach transport.CoachService, sessions transport.SessionService, opts ...ServerOption) *Server {
	s := &Server{
		config: ServerConfig{
			Addr:            ":8080",
			MaxBodySize:     1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.adapter = NewAdapter(store, coach, sessions, Config{
		Addr:            s.config.Addr,
		MaxBodySize:     s.config.MaxBodySize,
		ShutdownTimeout: int(s.config.ShutdownTimeout.Seconds()),
		Metrics:         s.config.Metrics,
		MCP:             s.config.MCP,
	})

	chain := make([]transport.Middleware, 0, 3+len(s.config.Middleware))
	chain = append(chain,
		transport.Recovery(s.logger),
		transport.RequestID(),
		transport.Logging(s.logger),
	)
	chain = append(chain, s.config.Middleware...)

	s.httpServer = &http.Server{
		Addr:    s.config.Addr,
		Handler: transport.Chain(chain...)(s.adapter.Handler()),
	}
	return s
}

// ServerOption configures a Server at construction time.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.config.Addr = addr }
}

// WithMaxBodySize caps the size of accepted request bodies.
func WithMaxBodySize(n int64) ServerOption {
	return func(s *Server) { s.config.MaxBodySize = n }
}

// WithShutdownTimeout bounds how long shutdown waits for in-flight requests.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithLogger sets the logger used by the built-in middleware and for
// lifecycle messages.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithMetricsHandler mounts a metrics handler at GET /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) { s.config.Metrics = h }
}

// WithMCPHandler mounts an MCP handler at /mcp.
func WithMCPHandler(h http.Handler) ServerOption {
	return func(s *Server) { s.config.MCP = h }
}

// WithMiddleware appends middleware inside the built-in chain. Use this
// for authentication and metrics collection.
func WithMiddleware(mw ...transport.Middleware) ServerOption {
	return func(s *Server) { s.config.Middleware = append(s.config.Middleware, mw...) }
}

// Handler returns the fully wrapped handler for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe binds the configured address and blocks until the process
// receives SIGINT or SIGTERM, then drains within the shutdown timeout.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server starting", slog.String("addr", s.config.Addr))
	return s.serveUntilSignal(s.httpServer.ListenAndServe)
}

// ServeOn serves on an existing listener, which lets tests bind an
// ephemeral port before starting the server.
func (s *Server) ServeOn(ln net.Listener) error {
	return s.serveUntilSignal(func() error { return s.httpServer.Serve(ln) })
}

// serveUntilSignal runs serve in the background and waits for either a
// serve error or a termination signal. On a signal it drains in-flight
// requests, giving up after the configured timeout.
func (s *Server) serveUntilSignal(serve func() error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := serve(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("draining connections", slog.Duration("timeout", s.config.ShutdownTimeout))
	if err := s.httpServer.Shutdown(drainCtx); err != nil {
		s.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight
// requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
