// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package access

import (
	"strings"

	"github.com/samber/oops"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/pkg/errutil"
)

// Error codes.
const (
	CodeUnauthenticated  = "ACCESS_UNAUTHENTICATED"
	CodeForbidden        = "ACCESS_FORBIDDEN"
	CodeUnknownOperation = "ACCESS_UNKNOWN_OPERATION"
)

// MsgUnauthorized is the public message for missing or invalid tokens.
const MsgUnauthorized = "Unauthorized"

// Decisions passed to a DecisionObserver.
const (
	DecisionPublic           = "public"
	DecisionAllowed          = "allowed"
	DecisionUnauthenticated  = "unauthenticated"
	DecisionForbidden        = "forbidden"
	DecisionUnknownOperation = "unknown_operation"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// DecisionObserver is told the outcome of every Admit or Authorize call.
type DecisionObserver func(op Operation, decision string)

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithDecisionObserver reports decisions to observe.
func WithDecisionObserver(observe DecisionObserver) GuardOption {
	return func(g *Guard) {
		if observe != nil {
			g.observe = observe
		}
	}
}

// Guard enforces a RouteTable. It never issues or modifies tokens.
type Guard struct {
	routes   *RouteTable
	verifier TokenVerifier
	observe  DecisionObserver
}

// NewGuard creates a Guard over routes using verifier for bearer tokens.
func NewGuard(routes *RouteTable, verifier TokenVerifier, opts ...GuardOption) (*Guard, error) {
	if routes == nil {
		return nil, oops.Code("ACCESS_GUARD_INVALID").Errorf("route table is required")
	}
	if verifier == nil {
		return nil, oops.Code("ACCESS_GUARD_INVALID").Errorf("token verifier is required")
	}
	g := &Guard{
		routes:   routes,
		verifier: verifier,
		observe:  func(Operation, string) {},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Requirement returns op's declared requirement.
func (g *Guard) Requirement(op Operation) (RoleRequirement, bool) {
	return g.routes.Lookup(op)
}

// Authenticate turns an Authorization header value into an AuthContext.
// An empty header yields a nil context and no error.
func (g *Guard) Authenticate(authorization string) (*AuthContext, error) {
	authorization = strings.TrimSpace(authorization)
	if authorization == "" {
		return nil, nil
	}

	scheme, token, ok := strings.Cut(authorization, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, unauthenticated("unsupported authorization scheme")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, unauthenticated("empty bearer token")
	}

	principal, err := g.verifier.Verify(token)
	if err != nil {
		return nil, oops.In("access").Wrap(err)
	}
	return NewAuthContext(principal)
}

// Authorize checks ac against op's requirement. ac may be nil for anonymous
// callers.
func (g *Guard) Authorize(op Operation, ac *AuthContext) error {
	req, ok := g.routes.Lookup(op)
	if !ok {
		g.observe(op, DecisionUnknownOperation)
		return oops.Code(CodeUnknownOperation).In("access").
			With("operation", string(op)).
			Errorf("operation is not declared in the route table")
	}
	if req.IsPublic() {
		g.observe(op, DecisionPublic)
		return nil
	}
	if ac == nil {
		g.observe(op, DecisionUnauthenticated)
		return unauthenticated("missing bearer token")
	}
	if !req.Allows(ac.Role) {
		g.observe(op, DecisionForbidden)
		return errutil.Forbidden(CodeForbidden).In("access").
			With("operation", string(op)).
			With("role", ac.Role.String()).
			Public("You need this roles: "+joinRoles(req.roles)).
			Errorf("role %s does not satisfy %s", ac.Role, req)
	}
	g.observe(op, DecisionAllowed)
	return nil
}

// Admit runs the whole check for one request: public operations pass
// without looking at the header, everything else must present a valid
// token that satisfies the requirement. The returned context is nil for
// public operations.
func (g *Guard) Admit(op Operation, authorization string) (*AuthContext, error) {
	req, ok := g.routes.Lookup(op)
	if ok && req.IsPublic() {
		g.observe(op, DecisionPublic)
		return nil, nil
	}
	if !ok {
		return nil, g.Authorize(op, nil)
	}

	ac, err := g.Authenticate(authorization)
	if err != nil {
		g.observe(op, DecisionUnauthenticated)
		return nil, err
	}
	if err := g.Authorize(op, ac); err != nil {
		return nil, err
	}
	return ac, nil
}

func unauthenticated(reason string) error {
	return errutil.Unauthorized(CodeUnauthenticated).In("access").
		With("reason", reason).
		Public(MsgUnauthorized).
		Errorf("unauthenticated: %s", reason)
}
