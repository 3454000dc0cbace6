// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package access

import (
	"slices"

	"github.com/samber/oops"
)

// RouteTable maps operations to their requirements. It is filled at
// startup and read-only afterwards.
type RouteTable struct {
	routes map[Operation]RoleRequirement
}

// NewRouteTable creates an empty table.
func NewRouteTable() *RouteTable {
	return &RouteTable{routes: make(map[Operation]RoleRequirement)}
}

// Register declares op's requirement. Registering an operation twice is an error.
func (t *RouteTable) Register(op Operation, req RoleRequirement) error {
	if op == "" {
		return oops.Code("ACCESS_ROUTE_INVALID").In("access").Errorf("operation name cannot be empty")
	}
	if !req.valid() {
		return oops.Code("ACCESS_ROUTE_INVALID").In("access").
			With("operation", string(op)).
			With("requirement", req.String()).
			Errorf("invalid role requirement")
	}
	if existing, ok := t.routes[op]; ok {
		return oops.Code("ACCESS_ROUTE_DUPLICATE").In("access").
			With("operation", string(op)).
			With("existing", existing.String()).
			Errorf("operation already registered")
	}
	t.routes[op] = req
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (t *RouteTable) MustRegister(op Operation, req RoleRequirement) *RouteTable {
	if err := t.Register(op, req); err != nil {
		panic(err)
	}
	return t
}

// Lookup returns op's requirement.
func (t *RouteTable) Lookup(op Operation) (RoleRequirement, bool) {
	req, ok := t.routes[op]
	return req, ok
}

// Operations returns the registered operations in sorted order.
func (t *RouteTable) Operations() []Operation {
	ops := make([]Operation, 0, len(t.routes))
	for op := range t.routes {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}
