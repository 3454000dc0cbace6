// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

// Package accesstest provides test helpers for access control.
package accesstest

import (
	"github.com/oklog/ulid/v2"

	"github.com/reelvault/reelvault/internal/access"
	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/pkg/errutil"
)

// StaticVerifier is a TokenVerifier backed by a fixed token → principal map.
type StaticVerifier map[string]auth.Principal

// Verify returns the principal registered for token.
func (v StaticVerifier) Verify(token string) (auth.Principal, error) {
	p, ok := v[token]
	if !ok {
		return auth.Principal{}, errutil.Unauthorized(auth.CodeTokenInvalid).
			Public(auth.MsgTokenInvalid).
			Errorf("unknown token")
	}
	return p, nil
}

// Principal returns a principal with a fresh ID for role.
func Principal(email string, role auth.Role) auth.Principal {
	return auth.Principal{ID: ulid.Make().String(), Email: email, Role: role}
}

// Decisions records guard decisions in order.
type Decisions struct {
	Ops       []access.Operation
	Decisions []string
}

// Observe implements access.DecisionObserver.
func (d *Decisions) Observe(op access.Operation, decision string) {
	d.Ops = append(d.Ops, op)
	d.Decisions = append(d.Decisions, decision)
}
