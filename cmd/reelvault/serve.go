// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/reelvault/reelvault/internal/access"
	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/httpapi"
	"github.com/reelvault/reelvault/internal/observability"
	"github.com/reelvault/reelvault/internal/store"
)

const readinessTimeout = 2 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API and, unless metrics.addr is empty, the metrics and
health probe listener. SIGINT or SIGTERM drains in-flight requests.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCommandConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().String("addr", "", "HTTP listen address")
	cmd.Flags().String("metrics-addr", "", "metrics/health HTTP address (empty keeps the config value)")
	cmd.Flags().Bool("auto-migrate", false, "apply pending migrations before serving")

	return cmd
}

// runServe wires every component and blocks until ctx is cancelled or a
// listener fails.
func runServe(ctx context.Context, cfg *Config) error {
	logger, err := cfg.Logger(serviceName)
	if err != nil {
		return err
	}
	logger.Info("starting reelvault",
		"version", version,
		"env", cfg.Env,
		"http_addr", cfg.HTTP.Addr,
		"ratelimit_backend", cfg.RateLimit.Backend,
	)

	if cfg.Database.AutoMigrate {
		if err := migrateUp(cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	obs := observability.NewServer(cfg.Metrics.Addr, store.ReadinessCheck(pool, readinessTimeout))
	metrics := obs.Metrics()

	tokens, err := newTokenIssuer(cfg, logger)
	if err != nil {
		return err
	}

	limiter, err := newLimiter(ctx, cfg.RateLimit, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := limiter.Close(); closeErr != nil {
			logger.Warn("closing rate limiter", "error", closeErr)
		}
	}()

	authSvc, err := newAuthService(cfg, pool, tokens, logger,
		auth.WithAttemptLimiter(limiter, auth.LockoutPolicy{Threshold: cfg.RateLimit.MaxFailures}),
		auth.WithObserver(metrics.ObserveAuth),
	)
	if err != nil {
		return err
	}

	catalogSvc, err := newCatalogService(cfg, pool, logger)
	if err != nil {
		return err
	}

	guard, err := access.NewGuard(httpapi.Routes(), tokens,
		access.WithDecisionObserver(func(op access.Operation, decision string) {
			metrics.ObserveDecision(string(op), decision)
		}),
	)
	if err != nil {
		return err
	}

	api, err := httpapi.New(httpapi.Deps{
		Addr:           cfg.HTTP.Addr,
		Auth:           authSvc,
		Catalog:        catalogSvc,
		Guard:          guard,
		Logger:         logger,
		Metrics:        metrics,
		AllowedOrigins: cfg.HTTP.CORS.AllowedOrigins,
		BodyLimit:      cfg.HTTP.BodyLimit,
	})
	if err != nil {
		return err
	}

	var obsErrs <-chan error
	if cfg.Metrics.Addr != "" {
		obsErrs, err = obs.Start()
		if err != nil {
			return err
		}
	}

	apiErrs, err := api.Start()
	if err != nil {
		stopWithTimeout(obs.Stop, cfg.HTTP.ShutdownTimeout)
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err, ok := <-apiErrs:
		if ok {
			serveErr = oops.Code("HTTPAPI_SERVE_FAILED").Wrap(err)
		}
	case err, ok := <-obsErrs:
		if ok {
			serveErr = oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(err)
		}
	}

	stopWithTimeout(api.Stop, cfg.HTTP.ShutdownTimeout)
	stopWithTimeout(obs.Stop, cfg.HTTP.ShutdownTimeout)
	logger.Info("reelvault stopped")
	return serveErr
}

func stopWithTimeout(stop func(context.Context) error, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		slog.Warn("graceful shutdown incomplete", "error", err)
	}
}
