// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelvault/reelvault/internal/access"
	"github.com/reelvault/reelvault/internal/auth"
)

// Operations served by this package.
const (
	OpRegister       access.Operation = "auth.register"
	OpLogin          access.Operation = "auth.login"
	OpChangePassword access.Operation = "auth.change_password"
	OpMe             access.Operation = "auth.me"

	OpListMovies  access.Operation = "movies.list"
	OpGetMovie    access.Operation = "movies.get"
	OpCreateMovie access.Operation = "movies.create"
	OpUpdateMovie access.Operation = "movies.update"
	OpDeleteMovie access.Operation = "movies.delete"
	OpSyncMovies  access.Operation = "movies.sync"
)

// Operations lists every operation the router binds.
func Operations() []access.Operation {
	return []access.Operation{
		OpRegister, OpLogin, OpChangePassword, OpMe,
		OpListMovies, OpGetMovie, OpCreateMovie, OpUpdateMovie, OpDeleteMovie, OpSyncMovies,
	}
}

// Routes returns the role requirement of every operation.
func Routes() *access.RouteTable {
	return access.NewRouteTable().
		MustRegister(OpRegister, access.Public()).
		MustRegister(OpLogin, access.Public()).
		MustRegister(OpChangePassword, access.Authenticated()).
		MustRegister(OpMe, access.Authenticated()).
		MustRegister(OpListMovies, access.Public()).
		MustRegister(OpGetMovie, access.Roles(auth.RoleUser, auth.RoleAdmin)).
		MustRegister(OpCreateMovie, access.Roles(auth.RoleAdmin)).
		MustRegister(OpUpdateMovie, access.Roles(auth.RoleAdmin)).
		MustRegister(OpDeleteMovie, access.Roles(auth.RoleAdmin)).
		MustRegister(OpSyncMovies, access.Roles(auth.RoleAdmin))
}

// guardedHandler receives the caller resolved by the guard. ac is nil on
// public operations.
type guardedHandler func(w http.ResponseWriter, r *http.Request, ac *access.AuthContext)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.traceMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleMethodNotAllowed)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.guarded(OpRegister, s.handleRegister))
		r.Post("/signin", s.guarded(OpLogin, s.handleLogin))
		r.Patch("/change-password", s.guarded(OpChangePassword, s.handleChangePassword))
		r.Get("/me", s.guarded(OpMe, s.handleMe))
	})

	r.Route("/movies", func(r chi.Router) {
		r.Get("/", s.guarded(OpListMovies, s.handleListMovies))
		r.Post("/", s.guarded(OpCreateMovie, s.handleCreateMovie))
		r.Post("/sync", s.guarded(OpSyncMovies, s.handleSyncMovies))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.guarded(OpGetMovie, s.handleGetMovie))
			r.Put("/", s.guarded(OpUpdateMovie, s.handleUpdateMovie))
			r.Delete("/", s.guarded(OpDeleteMovie, s.handleDeleteMovie))
		})
	})

	return r
}

// guarded admits the request for op and calls next with the caller.
func (s *Server) guarded(op access.Operation, next guardedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, err := s.guard.Admit(op, r.Header.Get("Authorization"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		next(w, r, ac)
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusMethodNotAllowed, "Cannot "+r.Method+" "+r.URL.Path)
}
