// Package config loads mailauth settings from MAILAUTH_* environment variables.
//
// Command line flags override whatever is loaded here.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/teemow/mailauth/internal/provider"
	"github.com/teemow/mailauth/internal/secrets"
)

// Config is the mailauth configuration.
type Config struct {
	ClientID     string        `env:"MAILAUTH_CLIENT_ID"`
	ClientSecret string        `env:"MAILAUTH_CLIENT_SECRET"`
	Provider     string        `env:"MAILAUTH_PROVIDER"     envDefault:"google"`
	Tenant       string        `env:"MAILAUTH_TENANT"       envDefault:"common"`
	HTTPTimeout  time.Duration `env:"MAILAUTH_HTTP_TIMEOUT" envDefault:"30s"`
	Debug        bool          `env:"MAILAUTH_DEBUG"`
	MetricsFile  string        `env:"MAILAUTH_METRICS_FILE"`

	Secrets SecretsConfig `envPrefix:"MAILAUTH_SECRETS_"`
}

// SecretsConfig selects and configures the secret store.
type SecretsConfig struct {
	Backend string `env:"BACKEND" envDefault:"file"`
	Dir     string `env:"DIR"`
	// Key is a base64 AES-256 key; empty stores secrets unencrypted.
	Key string `env:"KEY"`

	RedisAddr      string `env:"REDIS_ADDR"       envDefault:"localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB"         envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"mailauth:secret:"`
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadFrom parses the given environment instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	var errs []error

	if c.Provider == "" {
		errs = append(errs, errors.New("provider must not be empty"))
	}
	if c.Provider == string(provider.KindMicrosoft) && c.Tenant == "" {
		errs = append(errs, errors.New("tenant must not be empty for microsoft"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout))
	}

	switch c.Secrets.Backend {
	case secrets.BackendMemory, secrets.BackendFile:
	case secrets.BackendRedis:
		if c.Secrets.RedisAddr == "" {
			errs = append(errs, errors.New("redis address must not be empty"))
		}
		if c.Secrets.RedisDB < 0 {
			errs = append(errs, fmt.Errorf("redis db must not be negative, got %d", c.Secrets.RedisDB))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown secrets backend %q (supported: %s, %s, %s)",
			c.Secrets.Backend, secrets.BackendMemory, secrets.BackendFile, secrets.BackendRedis))
	}

	if _, err := secrets.KeyFromBase64(c.Secrets.Key); err != nil {
		errs = append(errs, fmt.Errorf("secrets key: %w", err))
	}

	return errors.Join(errs...)
}
