// Package config provides unified configuration for the vorrat server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (VORRAT_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the vorrat server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Storage       StorageConfig       `yaml:"storage"`
	Auth          AuthConfig          `yaml:"auth"`
	Coach         CoachConfig         `yaml:"coach"`
	MCP           MCPConfig           `yaml:"mcp"`
	Observability ObservabilityConfig `yaml:"observability"`
	Debug         DebugConfig         `yaml:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 1 MiB
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
}

// StorageConfig selects and tunes the backend for each preference scope.
type StorageConfig struct {
	// Namespace prefixes every storage key. Default: "coach".
	Namespace string `yaml:"namespace"`

	// Device is the durable scope backend. Default: memory.
	Device BackendConfig `yaml:"device"`

	// Session is the ephemeral scope backend. Default: memory with a
	// 12 hour TTL so abandoned sessions expire.
	Session BackendConfig `yaml:"session"`
}

// BackendConfig describes one scope's backend.
type BackendConfig struct {
	Type     string         `yaml:"type"` // "memory", "sqlite", or "postgres"
	Memory   MemoryConfig   `yaml:"memory"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MemoryConfig bounds the in-memory backend. Zero values mean unlimited.
type MemoryConfig struct {
	MaxEntries    int           `yaml:"max_entries"`
	MaxValueBytes int           `yaml:"max_value_bytes"`
	MaxTotalBytes int64         `yaml:"max_total_bytes"`
	TTL           time.Duration `yaml:"ttl"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"` // database file path, required for type=sqlite
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// Mode selects the auth chain: "none" accepts everything (dev),
	// "telegram" requires Telegram init data or a session token.
	Mode string `yaml:"mode"`

	Telegram  TelegramConfig  `yaml:"telegram"`
	Session   SessionConfig   `yaml:"session"`
	APIKeys   []APIKeyConfig  `yaml:"api_keys"` // static keys for admin access
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// TelegramConfig holds Telegram WebApp verification settings.
type TelegramConfig struct {
	BotToken     string        `yaml:"bot_token"`
	BotTokenFile string        `yaml:"bot_token_file"` // _file variant for bot_token
	MaxAuthAge   time.Duration `yaml:"max_auth_age"`   // default: 24h
}

// SessionConfig holds session token settings.
type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	SecretFile string        `yaml:"secret_file"` // _file variant for secret
	TTL        time.Duration `yaml:"ttl"`         // default: 24h
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string `yaml:"key"`
	KeyFile     string `yaml:"key_file"` // _file variant for key
	Subject     string `yaml:"subject"`
	ServiceTier string `yaml:"service_tier"`
}

// RateLimitConfig holds per-tier rate limit settings.
type RateLimitConfig struct {
	Enabled    bool           `yaml:"enabled"`
	DefaultRPM int            `yaml:"default_rpm"` // default: 120
	Tiers      map[string]int `yaml:"tiers"`       // tier name -> requests per minute
}

// CoachConfig holds coach feature settings.
type CoachConfig struct {
	Enabled          bool `yaml:"enabled"`            // default: true
	KcalTarget       int  `yaml:"kcal_target"`        // default daily target, 0 = 2000
	MealHistoryLimit int  `yaml:"meal_history_limit"` // 0 = 200
}

// MCPConfig holds Model Context Protocol server settings.
type MCPConfig struct {
	Enabled bool `yaml:"enabled"` // serve MCP tools on /mcp, default: true
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// DebugConfig holds debug logging settings. The VORRAT_DEBUG and
// VORRAT_LOG_LEVEL environment variables take precedence.
type DebugConfig struct {
	Categories string `yaml:"categories"` // comma-separated, e.g. "storage,auth"
	Level      string `yaml:"level"`      // ERROR, WARN, INFO, DEBUG, TRACE
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // serve /metrics, default: true
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			MaxBodySize:     1 << 20,
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Namespace: "coach",
			Device: BackendConfig{
				Type: "memory",
				Postgres: PostgresConfig{
					MaxConns: 25,
				},
			},
			Session: BackendConfig{
				Type: "memory",
				Memory: MemoryConfig{
					TTL: 12 * time.Hour,
				},
				Postgres: PostgresConfig{
					MaxConns: 25,
				},
			},
		},
		Auth: AuthConfig{
			Mode: "none",
			Telegram: TelegramConfig{
				MaxAuthAge: 24 * time.Hour,
			},
			Session: SessionConfig{
				TTL: 24 * time.Hour,
			},
			RateLimit: RateLimitConfig{
				DefaultRPM: 120,
				Tiers: map[string]int{
					"free":    60,
					"premium": 600,
				},
			},
		},
		Coach: CoachConfig{
			Enabled: true,
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
			},
		},
	}
}
