// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

// Package access decides whether a request may reach an operation.
//
// Every operation is declared up front in a RouteTable with a
// RoleRequirement:
//   - Public(): no token needed, the guard is bypassed
//   - Authenticated(): any valid token
//   - Roles(...): a valid token whose role is one of the listed roles
//
// Operations missing from the table are refused.
package access

import (
	"slices"
	"strings"

	"github.com/reelvault/reelvault/internal/auth"
)

// Operation identifies a protected unit of work, e.g. "movies.create".
type Operation string

type requirementKind uint8

const (
	requirePublic requirementKind = iota + 1
	requireAuthenticated
	requireRoles
)

// RoleRequirement is what an operation demands of its caller. The zero
// value is invalid and rejected by RouteTable.Register.
type RoleRequirement struct {
	kind  requirementKind
	roles []auth.Role
}

// Public declares an operation open to anonymous callers.
func Public() RoleRequirement {
	return RoleRequirement{kind: requirePublic}
}

// Authenticated declares an operation open to any valid token.
func Authenticated() RoleRequirement {
	return RoleRequirement{kind: requireAuthenticated}
}

// Roles declares an operation open to tokens carrying one of roles.
// An empty list is equivalent to Authenticated.
func Roles(roles ...auth.Role) RoleRequirement {
	if len(roles) == 0 {
		return Authenticated()
	}
	return RoleRequirement{kind: requireRoles, roles: slices.Clone(roles)}
}

// IsPublic reports whether the guard is bypassed.
func (r RoleRequirement) IsPublic() bool {
	return r.kind == requirePublic
}

// RequiredRoles returns the accepted roles, or nil when any role is accepted.
func (r RoleRequirement) RequiredRoles() []auth.Role {
	return slices.Clone(r.roles)
}

// Allows reports whether an authenticated caller with role satisfies r.
func (r RoleRequirement) Allows(role auth.Role) bool {
	switch r.kind {
	case requirePublic, requireAuthenticated:
		return true
	case requireRoles:
		return slices.Contains(r.roles, role)
	default:
		return false
	}
}

func (r RoleRequirement) String() string {
	switch r.kind {
	case requirePublic:
		return "public"
	case requireAuthenticated:
		return "authenticated"
	case requireRoles:
		return "roles(" + joinRoles(r.roles) + ")"
	default:
		return "invalid"
	}
}

func (r RoleRequirement) valid() bool {
	switch r.kind {
	case requirePublic, requireAuthenticated:
		return true
	case requireRoles:
		for _, role := range r.roles {
			if !role.Valid() {
				return false
			}
		}
		return len(r.roles) > 0
	default:
		return false
	}
}

func joinRoles(roles []auth.Role) string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = role.String()
	}
	return strings.Join(names, ", ")
}
