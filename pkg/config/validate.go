package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	// storage.namespace is required.
	if c.Storage.Namespace == "" {
		errs = append(errs, fmt.Errorf("storage.namespace is required"))
	}

	errs = append(errs, validateBackend("storage.device", &c.Storage.Device)...)
	errs = append(errs, validateBackend("storage.session", &c.Storage.Session)...)

	// auth.mode must be a known value.
	switch c.Auth.Mode {
	case "none", "telegram":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be \"none\" or \"telegram\", got %q", c.Auth.Mode))
	}

	// Telegram auth needs the bot token and a session signing secret.
	if c.Auth.Mode == "telegram" {
		if c.Auth.Telegram.BotToken == "" && c.Auth.Telegram.BotTokenFile == "" {
			errs = append(errs, fmt.Errorf("auth.telegram.bot_token or auth.telegram.bot_token_file is required when auth.mode is \"telegram\""))
		}
		if c.Auth.Session.Secret == "" && c.Auth.Session.SecretFile == "" {
			errs = append(errs, fmt.Errorf("auth.session.secret or auth.session.secret_file is required when auth.mode is \"telegram\""))
		}
	}

	// API key entries need a key and a subject.
	for i, k := range c.Auth.APIKeys {
		if k.Key == "" && k.KeyFile == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].key or key_file is required", i))
		}
		if k.Subject == "" {
			errs = append(errs, fmt.Errorf("auth.api_keys[%d].subject is required", i))
		}
	}

	return errors.Join(errs...)
}

// validateBackend checks one scope's backend configuration.
func validateBackend(path string, b *BackendConfig) []error {
	var errs []error

	switch b.Type {
	case "memory":
		// valid, no required fields
	case "sqlite":
		if b.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("%s.sqlite.path is required when %s.type is \"sqlite\"", path, path))
		}
	case "postgres":
		if b.Postgres.DSN == "" && b.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("%s.postgres.dsn or %s.postgres.dsn_file is required when %s.type is \"postgres\"", path, path, path))
		}
	default:
		errs = append(errs, fmt.Errorf("%s.type must be \"memory\", \"sqlite\", or \"postgres\", got %q", path, b.Type))
	}

	return errs
}
