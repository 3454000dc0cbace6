// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

// Package httpapi is the JSON HTTP surface of reelvault.
//
// Every route is bound to an access.Operation. The guard middleware looks
// the operation up in the route table, decodes the bearer token at most once,
// and hands the resulting *access.AuthContext to the handler explicitly.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/reelvault/reelvault/internal/access"
	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/catalog"
)

// DefaultBodyLimit caps request bodies at 1 MiB.
const DefaultBodyLimit int64 = 1 << 20

const readHeaderTimeout = 10 * time.Second

// AuthAPI is the account surface served under /auth.
type AuthAPI interface {
	RegisterUser(ctx context.Context, in auth.RegisterInput) (*auth.RegisterResult, error)
	LoginUser(ctx context.Context, in auth.LoginInput) (*auth.LoginResult, error)
	ChangePassword(ctx context.Context, identityID ulid.ULID, in auth.ChangePasswordInput) (*auth.MessageResult, error)
	Profile(ctx context.Context, id ulid.ULID) (*auth.Identity, error)
}

// CatalogAPI is the movie surface served under /movies.
type CatalogAPI interface {
	List(ctx context.Context, f catalog.Filter) (*catalog.Page, error)
	Get(ctx context.Context, id int64) (*catalog.Movie, error)
	Create(ctx context.Context, in catalog.MovieInput) (*catalog.Movie, error)
	Update(ctx context.Context, id int64, u catalog.MovieUpdate) (*catalog.UpdateResult, error)
	Delete(ctx context.Context, id int64) (*catalog.DeleteResult, error)
	Sync(ctx context.Context) (*catalog.SyncResult, error)
}

// RequestObserver records finished requests, e.g. as Prometheus metrics.
type RequestObserver interface {
	ObserveRequest(route string, status int, elapsed time.Duration)
}

// Deps holds the server's collaborators and settings.
type Deps struct {
	Addr    string
	Auth    AuthAPI
	Catalog CatalogAPI
	Guard   *access.Guard
	Logger  *slog.Logger
	Metrics RequestObserver
	// AllowedOrigins are glob patterns such as "https://*.example.com",
	// where * does not cross a dot. "*" alone allows any origin and an
	// empty list disables CORS headers.
	AllowedOrigins []string
	BodyLimit      int64
}

// Server serves the API.
type Server struct {
	addr      string
	auth      AuthAPI
	catalog   CatalogAPI
	guard     *access.Guard
	logger    *slog.Logger
	metrics   RequestObserver
	origins   []glob.Glob
	bodyLimit int64

	handler    http.Handler
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// New validates deps and builds the router.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Auth == nil:
		return nil, oops.Code("HTTPAPI_INVALID").Errorf("auth service is required")
	case deps.Catalog == nil:
		return nil, oops.Code("HTTPAPI_INVALID").Errorf("catalog service is required")
	case deps.Guard == nil:
		return nil, oops.Code("HTTPAPI_INVALID").Errorf("access guard is required")
	}

	origins, err := compileOrigins(deps.AllowedOrigins)
	if err != nil {
		return nil, err
	}

	s := &Server{
		addr:      deps.Addr,
		auth:      deps.Auth,
		catalog:   deps.Catalog,
		guard:     deps.Guard,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		origins:   origins,
		bodyLimit: deps.BodyLimit,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.bodyLimit <= 0 {
		s.bodyLimit = DefaultBodyLimit
	}

	if err := s.checkRoutes(); err != nil {
		return nil, err
	}
	s.handler = s.buildRouter()
	return s, nil
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address. The returned channel receives a
// serve error, if any, and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("HTTPAPI_RUNNING").Errorf("http server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("HTTPAPI_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	srv := s.httpServer
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := srv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("http server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.With("operation", "shutdown_http_server").Wrap(err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// checkRoutes fails when the guard does not know an operation this server
// routes, so a missing declaration is caught at startup instead of as a 500.
func (s *Server) checkRoutes() error {
	for _, op := range Operations() {
		if _, ok := s.guard.Requirement(op); !ok {
			return oops.Code("HTTPAPI_ROUTE_UNDECLARED").
				With("operation", string(op)).
				Errorf("operation %s has no role requirement", op)
		}
	}
	return nil
}

func compileOrigins(patterns []string) ([]glob.Glob, error) {
	origins := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		if p == "*" {
			p = "**"
		}
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("origin", p).Wrapf(err, "invalid CORS origin pattern")
		}
		origins = append(origins, g)
	}
	return origins, nil
}
