// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/reelvault/reelvault/internal/access"
	"github.com/reelvault/reelvault/internal/auth"
)

// profileResponse is the body of GET /auth/me.
type profileResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// handleRegister answers 201 Created with the new account, matching the
// other POST routes that create a resource. Clients should treat any 2xx
// as success.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request, _ *access.AuthContext) {
	var in auth.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.auth.RegisterUser(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request, _ *access.AuthContext) {
	var in auth.LoginInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.auth.LoginUser(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, ac *access.AuthContext) {
	var in auth.ChangePasswordInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.auth.ChangePassword(r.Context(), ac.IdentityID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, ac *access.AuthContext) {
	identity, err := s.auth.Profile(r.Context(), ac.IdentityID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		ID:        identity.ID.String(),
		FullName:  identity.FullName,
		Email:     identity.Email,
		Role:      identity.Role,
		CreatedAt: identity.CreatedAt,
	})
}
