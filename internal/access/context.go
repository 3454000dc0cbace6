// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package access

import (
	"github.com/oklog/ulid/v2"

	"github.com/reelvault/reelvault/internal/auth"
)

// AuthContext is the verified caller of a request. A nil *AuthContext means
// the request carried no token.
type AuthContext struct {
	IdentityID ulid.ULID
	Email      string
	Role       auth.Role
}

// NewAuthContext builds an AuthContext from verified token claims.
func NewAuthContext(p auth.Principal) (*AuthContext, error) {
	id, err := ulid.Parse(p.ID)
	if err != nil {
		return nil, unauthenticated("malformed subject")
	}
	if !p.Role.Valid() {
		return nil, unauthenticated("unknown role")
	}
	return &AuthContext{IdentityID: id, Email: p.Email, Role: p.Role}, nil
}
