// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package httpapi

import (
	"net/http"

	"github.com/reelvault/reelvault/internal/access"
	"github.com/reelvault/reelvault/internal/catalog"
)

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request, _ *access.AuthContext) {
	filter, err := catalog.ParseFilter(r.URL.Query().Get)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.catalog.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetMovie(w http.ResponseWriter, r *http.Request, _ *access.AuthContext) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	movie, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, movie)
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request, ac *access.AuthContext) {
	var in catalog.MovieInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	movie, err := s.catalog.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "movie created",
		"movie_id", movie.ID,
		"identity_id", ac.IdentityID.String(),
	)
	writeJSON(w, http.StatusCreated, movie)
}

func (s *Server) handleUpdateMovie(w http.ResponseWriter, r *http.Request, ac *access.AuthContext) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var u catalog.MovieUpdate
	if err := decodeJSON(r, &u); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.catalog.Update(r.Context(), id, u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "movie updated",
		"movie_id", id,
		"identity_id", ac.IdentityID.String(),
	)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeleteMovie(w http.ResponseWriter, r *http.Request, ac *access.AuthContext) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.catalog.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "movie deleted",
		"movie_id", id,
		"identity_id", ac.IdentityID.String(),
	)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSyncMovies(w http.ResponseWriter, r *http.Request, ac *access.AuthContext) {
	res, err := s.catalog.Sync(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "movies synced",
		"created", res.Created,
		"updated", res.Updated,
		"identity_id", ac.IdentityID.String(),
	)
	writeJSON(w, http.StatusOK, res)
}
