// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/reelvault/reelvault/internal/auth"
	authpg "github.com/reelvault/reelvault/internal/auth/postgres"
	"github.com/reelvault/reelvault/internal/catalog"
	catalogpg "github.com/reelvault/reelvault/internal/catalog/postgres"
	"github.com/reelvault/reelvault/internal/ratelimit"
	"github.com/reelvault/reelvault/internal/store"
)

// openPool connects to the configured database.
func openPool(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Database.URL, store.OpenOptions{
		MaxConns:        cfg.Database.MaxConns,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
}

// newTokenIssuer applies the auth section to a TokenIssuer.
func newTokenIssuer(cfg *Config, logger *slog.Logger) (*auth.TokenIssuer, error) {
	return auth.NewTokenIssuer(auth.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		TTL:        cfg.Auth.TokenTTL,
		Production: cfg.Production(),
		Logger:     logger,
	})
}

// newLimiter returns the configured login attempt limiter.
func newLimiter(ctx context.Context, cfg RateLimitConfig, logger *slog.Logger) (ratelimit.Limiter, error) {
	switch cfg.Backend {
	case backendRedis:
		return ratelimit.DialRedis(ctx, ratelimit.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Window:   cfg.Window,
		}, logger)
	case backendMemory, "":
		return ratelimit.NewMemory(cfg.Window), nil
	default:
		return nil, oops.Code("CONFIG_INVALID").
			With("ratelimit.backend", cfg.Backend).
			Errorf("unknown rate limiter backend %q", cfg.Backend)
	}
}

// newAuthService wires the auth service over the pool.
func newAuthService(cfg *Config, pool *pgxpool.Pool, tokens auth.TokenSigner, logger *slog.Logger, opts ...auth.ServiceOption) (*auth.Service, error) {
	hasher, err := auth.NewHasher(cfg.Auth.Hasher, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	opts = append([]auth.ServiceOption{auth.WithLogger(logger)}, opts...)
	return auth.NewService(auth.ServiceDeps{
		Identities:  authpg.NewIdentityRepository(pool),
		Credentials: authpg.NewCredentialRepository(pool),
		Tx:          authpg.NewTxRunner(pool),
		Hasher:      hasher,
		Tokens:      tokens,
	}, opts...)
}

// newCatalogService wires the catalog service over the pool and SWAPI.
func newCatalogService(cfg *Config, pool *pgxpool.Pool, logger *slog.Logger) (*catalog.Service, error) {
	source, err := catalog.NewSWAPIClient(catalog.SWAPIOptions{
		BaseURL:    cfg.Catalog.SWAPIURL,
		HTTPClient: &http.Client{Timeout: cfg.Catalog.SyncTimeout},
		MaxRetries: cfg.Catalog.SyncRetries,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return catalog.NewService(catalogpg.NewMovieRepository(pool), source, logger)
}
