// Command vorrat runs the preference store server for the fitness mini app.
//
// Configuration is layered: built-in defaults, a YAML config file
// (-config flag, VORRAT_CONFIG, ./config.yaml, /etc/vorrat/config.yaml),
// then flat VORRAT_* environment overrides. See pkg/config.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vorrat-dev/vorrat/pkg/auth"
	"github.com/vorrat-dev/vorrat/pkg/auth/apikey"
	"github.com/vorrat-dev/vorrat/pkg/auth/noop"
	"github.com/vorrat-dev/vorrat/pkg/auth/session"
	"github.com/vorrat-dev/vorrat/pkg/auth/telegram"
	"github.com/vorrat-dev/vorrat/pkg/coach"
	"github.com/vorrat-dev/vorrat/pkg/config"
	"github.com/vorrat-dev/vorrat/pkg/debug"
	"github.com/vorrat-dev/vorrat/pkg/mcp"
	"github.com/vorrat-dev/vorrat/pkg/observability"
	"github.com/vorrat-dev/vorrat/pkg/prefs"
	"github.com/vorrat-dev/vorrat/pkg/storage/memory"
	"github.com/vorrat-dev/vorrat/pkg/storage/postgres"
	"github.com/vorrat-dev/vorrat/pkg/storage/sqlite"
	"github.com/vorrat-dev/vorrat/pkg/transport"
	transporthttp "github.com/vorrat-dev/vorrat/pkg/transport/http"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	debug.Init(cfg.Debug.Categories, cfg.Debug.Level)

	ctx := context.Background()

	// Build one backend per scope. The store closes both on shutdown.
	device, err := newBackend(ctx, "device", cfg.Storage.Device)
	if err != nil {
		return fmt.Errorf("building device backend: %w", err)
	}
	ephemeral, err := newBackend(ctx, "session", cfg.Storage.Session)
	if err != nil {
		device.Close()
		return fmt.Errorf("building session backend: %w", err)
	}

	store := prefs.New(device, ephemeral, prefs.WithNamespace(cfg.Storage.Namespace))
	defer store.Close()

	var coachSvc transport.CoachService
	if cfg.Coach.Enabled {
		svc, err := coach.New(store, coach.Config{
			KcalTarget:       cfg.Coach.KcalTarget,
			MealHistoryLimit: cfg.Coach.MealHistoryLimit,
		})
		if err != nil {
			return fmt.Errorf("creating coach service: %w", err)
		}
		coachSvc = svc
	}

	var sessions transport.SessionService
	var middleware []transport.Middleware

	switch cfg.Auth.Mode {
	case "telegram":
		verifier, err := telegram.NewVerifier(telegram.Config{
			BotToken:   cfg.Auth.Telegram.BotToken,
			MaxAuthAge: cfg.Auth.Telegram.MaxAuthAge,
		})
		if err != nil {
			return fmt.Errorf("creating telegram verifier: %w", err)
		}
		manager, err := session.NewManager(session.Config{
			Secret: []byte(cfg.Auth.Session.Secret),
			TTL:    cfg.Auth.Session.TTL,
		})
		if err != nil {
			return fmt.Errorf("creating session manager: %w", err)
		}
		svc, err := session.NewService(verifier, manager)
		if err != nil {
			return fmt.Errorf("creating session service: %w", err)
		}
		sessions = svc

		// Each authenticator abstains on credential shapes it does not
		// own: tma init data, Bearer JWTs, then opaque Bearer API keys.
		chain := &auth.AuthChain{
			Authenticators: []auth.Authenticator{
				telegram.NewAuthenticator(verifier),
				session.NewAuthenticator(manager),
			},
			DefaultDecision: auth.No,
		}
		if len(cfg.Auth.APIKeys) > 0 {
			chain.Authenticators = append(chain.Authenticators, apikey.New(apiKeyEntries(cfg)))
		}

		var limiter auth.RateLimiter
		if cfg.Auth.RateLimit.Enabled {
			tiers := make(map[string]auth.TierConfig, len(cfg.Auth.RateLimit.Tiers))
			for tier, rpm := range cfg.Auth.RateLimit.Tiers {
				tiers[tier] = auth.TierConfig{RequestsPerMinute: rpm}
			}
			limiter = auth.NewInProcessLimiter(tiers, cfg.Auth.RateLimit.DefaultRPM)
		}

		// POST /v1/session stays reachable without a token; it is where
		// tokens come from.
		bypass := append([]string{"/v1/session"}, auth.DefaultBypassEndpoints...)
		middleware = append(middleware, auth.Middleware(chain, limiter, bypass))

	case "none":
		// Dev mode: every request passes as the anonymous identity, and
		// preferences share the single ownerless keyspace.
		chain := &auth.AuthChain{
			Authenticators:  []auth.Authenticator{&noop.Authenticator{}},
			DefaultDecision: auth.No,
		}
		middleware = append(middleware, auth.Middleware(chain, nil, auth.DefaultBypassEndpoints))
	}

	if cfg.Observability.Metrics.Enabled {
		middleware = append(middleware, observability.MetricsMiddleware)
	}

	opts := []transporthttp.ServerOption{
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	}
	if len(middleware) > 0 {
		opts = append(opts, transporthttp.WithMiddleware(middleware...))
	}
	if cfg.Observability.Metrics.Enabled {
		opts = append(opts, transporthttp.WithMetricsHandler(promhttp.Handler()))
	}
	if cfg.MCP.Enabled {
		mcpSrv, err := mcp.NewServer(store, coachSvc, mcp.Config{Version: version})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		opts = append(opts, transporthttp.WithMCPHandler(mcpSrv.Handler()))
	}

	srv := transporthttp.NewServer(store, coachSvc, sessions, opts...)

	slog.Info("vorrat configured",
		"version", version,
		"port", cfg.Server.Port,
		"namespace", cfg.Storage.Namespace,
		"device_backend", cfg.Storage.Device.Type,
		"session_backend", cfg.Storage.Session.Type,
		"auth", cfg.Auth.Mode,
		"coach", cfg.Coach.Enabled,
		"mcp", cfg.MCP.Enabled,
	)
	return srv.ListenAndServe()
}

// newBackend builds one scope's storage backend.
func newBackend(ctx context.Context, scope string, cfg config.BackendConfig) (prefs.Backend, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(memory.Options{
			MaxEntries:    cfg.Memory.MaxEntries,
			MaxValueBytes: cfg.Memory.MaxValueBytes,
			MaxTotalBytes: cfg.Memory.MaxTotalBytes,
			TTL:           cfg.Memory.TTL,
		}), nil
	case "sqlite":
		return sqlite.New(cfg.SQLite.Path)
	case "postgres":
		return postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
	default:
		return nil, fmt.Errorf("unknown backend type %q for %s scope", cfg.Type, scope)
	}
}

// apiKeyEntries converts configured API keys into authenticator entries.
// API key callers own a keyspace under their subject, the same way
// Telegram users own one under their user ID.
func apiKeyEntries(cfg *config.Config) []apikey.RawKeyEntry {
	entries := make([]apikey.RawKeyEntry, 0, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		tier := k.ServiceTier
		if tier == "" {
			tier = "default"
		}
		entries = append(entries, apikey.RawKeyEntry{
			Key: k.Key,
			Identity: auth.Identity{
				Subject:     k.Subject,
				ServiceTier: tier,
				Metadata:    map[string]string{"user_id": k.Subject},
			},
		})
	}
	return entries
}
