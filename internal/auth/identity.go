// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Identity is a registered account, independent of its credential.
type Identity struct {
	ID        ulid.ULID
	FullName  string
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewIdentity creates an Identity with a fresh ID. The email is normalized
// with NormalizeEmail; fullName and email are assumed to be validated.
func NewIdentity(fullName, email string, role Role) (*Identity, error) {
	fullName = strings.TrimSpace(fullName)
	email = NormalizeEmail(email)
	if fullName == "" {
		return nil, oops.Code("IDENTITY_INVALID").Errorf("full name cannot be empty")
	}
	if email == "" {
		return nil, oops.Code("IDENTITY_INVALID").Errorf("email cannot be empty")
	}
	if !role.Valid() {
		return nil, oops.Code("IDENTITY_INVALID").With("role", string(role)).Errorf("invalid role")
	}

	now := time.Now().UTC()
	return &Identity{
		ID:        ulid.Make(),
		FullName:  fullName,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Principal returns the token claims for this identity as it is now.
func (i *Identity) Principal() Principal {
	return Principal{
		ID:    i.ID.String(),
		Email: i.Email,
		Role:  i.Role,
	}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IdentityDirectory stores identities. Implementations enforce email
// uniqueness and report a duplicate with an error wrapping ErrAlreadyExists.
type IdentityDirectory interface {
	// CreateIdentity stores a new identity.
	CreateIdentity(ctx context.Context, identity *Identity) error

	// FindByEmail returns the identity with the given email or an error
	// wrapping ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*Identity, error)

	// FindByID returns the identity with the given ID or an error wrapping ErrNotFound.
	FindByID(ctx context.Context, id ulid.ULID) (*Identity, error)
}
