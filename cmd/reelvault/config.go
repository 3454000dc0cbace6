// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package main

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/httpapi"
	"github.com/reelvault/reelvault/internal/logging"
	"github.com/reelvault/reelvault/internal/ratelimit"
)

// envPrefix namespaces environment overrides: REELVAULT_HTTP__ADDR sets http.addr.
const envPrefix = "REELVAULT_"

// Deployment environments.
const (
	envDevelopment = "development"
	envProduction  = "production"
)

// Rate limiter backends.
const (
	backendMemory = "memory"
	backendRedis  = "redis"
)

// Config is the full runtime configuration.
type Config struct {
	Env       string          `koanf:"env"`
	HTTP      HTTPConfig      `koanf:"http"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Log       LogConfig       `koanf:"log"`
}

// HTTPConfig configures the public API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	BodyLimit       int64         `koanf:"body_limit"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORS            CORSConfig    `koanf:"cors"`
}

// CORSConfig lists allowed browser origins as glob patterns.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string `koanf:"url"`
	MaxConns        int32  `koanf:"max_conns"`
	ConnectAttempts uint64 `koanf:"connect_attempts"`
	AutoMigrate     bool   `koanf:"auto_migrate"`
}

// AuthConfig configures hashing and tokens.
type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	Hasher     string        `koanf:"hasher"`
	BcryptCost int           `koanf:"bcrypt_cost"`
}

// RateLimitConfig configures login throttling.
type RateLimitConfig struct {
	Backend       string        `koanf:"backend"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	MaxFailures   int           `koanf:"max_failures"`
	Window        time.Duration `koanf:"window"`
}

// CatalogConfig configures the external film source.
type CatalogConfig struct {
	SWAPIURL    string        `koanf:"swapi_url"`
	SyncRetries uint64        `koanf:"sync_retries"`
	SyncTimeout time.Duration `koanf:"sync_timeout"`
}

// MetricsConfig configures the observability listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// defaults are loaded before any other source.
var defaults = map[string]any{
	"env":                       envDevelopment,
	"http.addr":                 ":3000",
	"http.body_limit":           httpapi.DefaultBodyLimit,
	"http.shutdown_timeout":     "10s",
	"database.max_conns":        10,
	"database.connect_attempts": 5,
	"database.auto_migrate":     false,
	"auth.token_ttl":            auth.DefaultTokenTTL.String(),
	"auth.hasher":               auth.AlgorithmBcrypt,
	"auth.bcrypt_cost":          auth.DefaultBcryptCost,
	"ratelimit.backend":         backendMemory,
	"ratelimit.max_failures":    auth.DefaultLockoutThreshold,
	"ratelimit.window":          ratelimit.DefaultWindow.String(),
	"catalog.swapi_url":         catalog.DefaultSWAPIURL,
	"catalog.sync_retries":      3,
	"catalog.sync_timeout":      "30s",
	"metrics.addr":              "127.0.0.1:9100",
	"log.format":                "json",
	"log.level":                 "info",
}

// flagKeys maps command-line flags onto config keys. Flags not listed here
// are not configuration.
var flagKeys = map[string]string{
	"env":          "env",
	"addr":         "http.addr",
	"database-url": "database.url",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
	"log-level":    "log.level",
	"auto-migrate": "database.auto_migrate",
}

// LoadConfig layers defaults, the YAML file at path (optional), the
// environment, and flags, in that order of increasing precedence.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	// DATABASE_URL is honored for compatibility with common tooling; the
	// prefixed variable wins when both are set.
	bare := env.ProviderWithValue("DATABASE_URL", ".", func(key, value string) (string, any) {
		if key != "DATABASE_URL" {
			return "", nil
		}
		return "database.url", value
	})
	if err := k.Load(bare, nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envValue), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return &cfg, nil
}

// envValue turns REELVAULT_HTTP__CORS__ALLOWED_ORIGINS into
// http.cors.allowed_origins. List values are comma separated.
func envValue(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if strings.HasSuffix(key, "allowed_origins") {
		var origins []string
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		return key, origins
	}
	return key, value
}

// Production reports whether cfg targets a production deployment.
func (cfg *Config) Production() bool {
	return cfg.Env == envProduction
}

// Validate checks values the services would otherwise reject later, or
// silently misuse.
func (cfg *Config) Validate() error {
	invalid := func(key string, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
	}

	switch cfg.Env {
	case envDevelopment, envProduction:
	default:
		return invalid("env", "env must be %q or %q, got %q", envDevelopment, envProduction, cfg.Env)
	}
	if cfg.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}
	if cfg.HTTP.BodyLimit <= 0 {
		return invalid("http.body_limit", "http.body_limit must be positive")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return invalid("auth.token_ttl", "auth.token_ttl must be positive")
	}
	if cfg.Production() && cfg.Auth.JWTSecret == "" {
		return invalid("auth.jwt_secret", "auth.jwt_secret is required in production")
	}
	if _, err := auth.NewHasher(cfg.Auth.Hasher, cfg.Auth.BcryptCost); err != nil {
		return invalid("auth.hasher", "auth.hasher: %v", err)
	}
	switch cfg.RateLimit.Backend {
	case backendMemory:
	case backendRedis:
		if cfg.RateLimit.RedisAddr == "" {
			return invalid("ratelimit.redis_addr", "ratelimit.redis_addr is required for the redis backend")
		}
	default:
		return invalid("ratelimit.backend", "ratelimit.backend must be %q or %q, got %q",
			backendMemory, backendRedis, cfg.RateLimit.Backend)
	}
	if cfg.RateLimit.MaxFailures <= 0 {
		return invalid("ratelimit.max_failures", "ratelimit.max_failures must be positive")
	}
	if cfg.RateLimit.Window <= 0 {
		return invalid("ratelimit.window", "ratelimit.window must be positive")
	}
	if u, err := url.Parse(cfg.Catalog.SWAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("catalog.swapi_url", "catalog.swapi_url must be an absolute URL")
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", cfg.Log.Format)
	}
	return nil
}

// RequireDatabase fails when no database URL is configured.
func (cfg *Config) RequireDatabase() error {
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			With("key", "database.url").
			Errorf("database.url (or DATABASE_URL) is required")
	}
	return nil
}

// Logger builds the process logger from the log section.
func (cfg *Config) Logger(service string) (*slog.Logger, error) {
	return logging.SetDefault(logging.Options{
		Service: service,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})
}
