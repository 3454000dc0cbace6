// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

// Package postgres implements the auth storage interfaces on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/store"
)

const identityColumns = `id, full_name, email, role, created_at, updated_at`

// IdentityRepository implements auth.IdentityDirectory using PostgreSQL.
type IdentityRepository struct {
	db store.DBTX
}

// NewIdentityRepository creates an IdentityRepository over a pool or transaction.
func NewIdentityRepository(db store.DBTX) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// CreateIdentity stores a new identity. Emails are unique without regard to case.
func (r *IdentityRepository) CreateIdentity(ctx context.Context, identity *auth.Identity) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO identities (`+identityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		identity.ID.String(),
		identity.FullName,
		identity.Email,
		string(identity.Role),
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if constraint, ok := store.UniqueViolation(err); ok {
		return oops.Code("IDENTITY_EXISTS").
			With("email", identity.Email).
			With("constraint", constraint).
			Wrap(auth.ErrAlreadyExists)
	}
	if err != nil {
		return oops.Code("IDENTITY_CREATE_FAILED").
			With("operation", "insert identity").
			With("email", identity.Email).
			Wrap(err)
	}
	return nil
}

// FindByEmail retrieves an identity by email (case-insensitive).
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE lower(email) = lower($1)
	`, email)

	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_FAILED").
			With("operation", "get identity by email").
			With("email", email).
			Wrap(err)
	}
	return identity, nil
}

// FindByID retrieves an identity by ID.
func (r *IdentityRepository) FindByID(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE id = $1
	`, id.String())

	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_FAILED").
			With("operation", "get identity by id").
			With("id", id.String()).
			Wrap(err)
	}
	return identity, nil
}

// SetRole changes an identity's role. Used by operator tooling; the public
// API never promotes accounts.
func (r *IdentityRepository) SetRole(ctx context.Context, id ulid.ULID, role auth.Role) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE identities SET role = $2, updated_at = $3 WHERE id = $1
	`, id.String(), string(role), time.Now().UTC())
	if err != nil {
		return oops.Code("IDENTITY_UPDATE_FAILED").
			With("operation", "set role").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("IDENTITY_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func scanIdentity(row pgx.Row) (*auth.Identity, error) {
	var (
		identity auth.Identity
		idStr    string
		roleStr  string
	)
	if err := row.Scan(
		&idStr,
		&identity.FullName,
		&identity.Email,
		&roleStr,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers classify ErrNoRows
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("IDENTITY_CORRUPT").With("id", idStr).Wrap(err)
	}
	identity.ID = id
	identity.Role = auth.Role(roleStr)
	return &identity, nil
}

var _ auth.IdentityDirectory = (*IdentityRepository)(nil)
