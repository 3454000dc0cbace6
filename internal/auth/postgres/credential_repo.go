// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/store"
)

// CredentialRepository implements auth.CredentialStore using PostgreSQL.
type CredentialRepository struct {
	db store.DBTX
}

// NewCredentialRepository creates a CredentialRepository over a pool or transaction.
func NewCredentialRepository(db store.DBTX) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create stores a new credential. The schema allows one credential per identity.
func (r *CredentialRepository) Create(ctx context.Context, credential *auth.Credential) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO credentials (id, identity_id, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		credential.ID.String(),
		credential.IdentityID.String(),
		credential.PasswordHash,
		credential.CreatedAt,
		credential.UpdatedAt,
	)
	if constraint, ok := store.UniqueViolation(err); ok {
		return oops.Code("CREDENTIAL_EXISTS").
			With("identity_id", credential.IdentityID.String()).
			With("constraint", constraint).
			Wrap(auth.ErrAlreadyExists)
	}
	if err != nil {
		return oops.Code("CREDENTIAL_CREATE_FAILED").
			With("operation", "insert credential").
			With("identity_id", credential.IdentityID.String()).
			Wrap(err)
	}
	return nil
}

// FindByIdentityID retrieves the credential bound to an identity.
func (r *CredentialRepository) FindByIdentityID(ctx context.Context, identityID ulid.ULID) (*auth.Credential, error) {
	var (
		credential auth.Credential
		idStr      string
		ownerStr   string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, identity_id, password_hash, created_at, updated_at
		FROM credentials
		WHERE identity_id = $1
	`, identityID.String()).Scan(
		&idStr,
		&ownerStr,
		&credential.PasswordHash,
		&credential.CreatedAt,
		&credential.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CREDENTIAL_NOT_FOUND").
			With("identity_id", identityID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CREDENTIAL_GET_FAILED").
			With("operation", "get credential").
			With("identity_id", identityID.String()).
			Wrap(err)
	}

	if credential.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("CREDENTIAL_CORRUPT").With("id", idStr).Wrap(err)
	}
	if credential.IdentityID, err = ulid.Parse(ownerStr); err != nil {
		return nil, oops.Code("CREDENTIAL_CORRUPT").With("identity_id", ownerStr).Wrap(err)
	}
	return &credential, nil
}

// Save writes the credential's current hash and update time.
func (r *CredentialRepository) Save(ctx context.Context, credential *auth.Credential) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE credentials
		SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, credential.ID.String(), credential.PasswordHash, credential.UpdatedAt)
	if err != nil {
		return oops.Code("CREDENTIAL_SAVE_FAILED").
			With("operation", "update credential").
			With("id", credential.ID.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("CREDENTIAL_NOT_FOUND").
			With("id", credential.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

var _ auth.CredentialStore = (*CredentialRepository)(nil)
