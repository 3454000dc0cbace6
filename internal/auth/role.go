// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth

import (
	"strings"

	"github.com/reelvault/reelvault/pkg/errutil"
)

// Role is the authorization level of an identity.
type Role string

// Known roles.
const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// DefaultRole is assigned to newly registered identities.
const DefaultRole = RoleUser

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", errutil.Validation(CodeInvalidInput).
			With("role", s).
			Errorf("unknown role %q", s)
	}
	return r, nil
}
