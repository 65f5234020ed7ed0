package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load assembles the effective configuration in layers: built-in defaults,
// then the YAML config file (if one is found), then VORRAT_* environment
// overrides, then *_file secret resolution, then validation. Later layers
// win.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if path := discoverConfigFile(configPath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile returns the config file to load: the explicit path if
// given, else $VORRAT_CONFIG, else the first of ./config.yaml and
// /etc/vorrat/config.yaml that exists. Explicit and env paths skip the
// existence check so a typo fails loudly in Load instead of being
// silently ignored.
func discoverConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("VORRAT_CONFIG"); p != "" {
		return p
	}
	for _, p := range []string{"config.yaml", "/etc/vorrat/config.yaml"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envString overwrites *dst when the variable is set and non-empty.
func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// envInt overwrites *dst when the variable holds a valid integer.
func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// envBool overwrites *dst when the variable holds a valid boolean.
func envBool(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// applyEnvOverrides maps flat VORRAT_* environment variables onto config
// fields, so containers can run without a config file. Unparseable values
// are ignored rather than fatal.
func applyEnvOverrides(cfg *Config) {
	envInt("VORRAT_PORT", &cfg.Server.Port)
	envString("VORRAT_NAMESPACE", &cfg.Storage.Namespace)

	// VORRAT_STORAGE sets both scopes; the per-scope variables win.
	if v := os.Getenv("VORRAT_STORAGE"); v != "" {
		cfg.Storage.Device.Type = v
		cfg.Storage.Session.Type = v
	}
	envString("VORRAT_DEVICE_STORAGE", &cfg.Storage.Device.Type)
	envString("VORRAT_SESSION_STORAGE", &cfg.Storage.Session.Type)
	envString("VORRAT_SQLITE_PATH", &cfg.Storage.Device.SQLite.Path)

	// Both scopes may share one database; the dev/sec key infix keeps
	// their rows apart.
	if v := os.Getenv("VORRAT_POSTGRES_DSN"); v != "" {
		cfg.Storage.Device.Postgres.DSN = v
		cfg.Storage.Session.Postgres.DSN = v
	}

	envString("VORRAT_AUTH_MODE", &cfg.Auth.Mode)
	envString("VORRAT_BOT_TOKEN", &cfg.Auth.Telegram.BotToken)
	envString("VORRAT_SESSION_SECRET", &cfg.Auth.Session.Secret)

	// VORRAT_API_KEYS holds a JSON array of API key configs.
	if v := os.Getenv("VORRAT_API_KEYS"); v != "" {
		var keys []APIKeyConfig
		if err := json.Unmarshal([]byte(v), &keys); err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}

	envBool("VORRAT_COACH_ENABLED", &cfg.Coach.Enabled)
	envBool("VORRAT_MCP_ENABLED", &cfg.MCP.Enabled)
	envBool("VORRAT_METRICS_ENABLED", &cfg.Observability.Metrics.Enabled)
}

// secretRef pairs a *_file config field with the value field it fills.
type secretRef struct {
	field string
	file  string
	dst   *string
}

// resolveFileReferences loads every *_file reference whose value field is
// still empty. File contents are trimmed of surrounding whitespace, which
// tolerates the trailing newline most secret mounts have.
func resolveFileReferences(cfg *Config) error {
	refs := []secretRef{
		{"storage.device.postgres.dsn_file", cfg.Storage.Device.Postgres.DSNFile, &cfg.Storage.Device.Postgres.DSN},
		{"storage.session.postgres.dsn_file", cfg.Storage.Session.Postgres.DSNFile, &cfg.Storage.Session.Postgres.DSN},
		{"auth.telegram.bot_token_file", cfg.Auth.Telegram.BotTokenFile, &cfg.Auth.Telegram.BotToken},
		{"auth.session.secret_file", cfg.Auth.Session.SecretFile, &cfg.Auth.Session.Secret},
	}
	for i := range cfg.Auth.APIKeys {
		refs = append(refs, secretRef{
			fmt.Sprintf("auth.api_keys[%d].key_file", i),
			cfg.Auth.APIKeys[i].KeyFile,
			&cfg.Auth.APIKeys[i].Key,
		})
	}

	for _, r := range refs {
		if r.file == "" || *r.dst != "" {
			continue
		}
		data, err := os.ReadFile(r.file)
		if err != nil {
			return fmt.Errorf("%s: %w", r.field, err)
		}
		*r.dst = strings.TrimSpace(string(data))
	}
	return nil
}
