// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Credential is the password hash bound 1:1 to an Identity.
type Credential struct {
	ID           ulid.ULID
	IdentityID   ulid.ULID
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewCredential creates a Credential for identityID holding passwordHash.
func NewCredential(identityID ulid.ULID, passwordHash string) (*Credential, error) {
	if identityID.IsZero() {
		return nil, oops.Code("CREDENTIAL_INVALID").Errorf("identity id cannot be zero")
	}
	if passwordHash == "" {
		return nil, oops.Code("CREDENTIAL_INVALID").Errorf("password hash cannot be empty")
	}

	now := time.Now().UTC()
	return &Credential{
		ID:           ulid.Make(),
		IdentityID:   identityID,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ReplaceHash swaps in a new password hash.
func (c *Credential) ReplaceHash(passwordHash string) {
	c.PasswordHash = passwordHash
	c.UpdatedAt = time.Now().UTC()
}

// CredentialStore persists credentials, at most one per identity.
type CredentialStore interface {
	// Create stores a new credential. A second credential for the same
	// identity is rejected with an error wrapping ErrAlreadyExists.
	Create(ctx context.Context, credential *Credential) error

	// FindByIdentityID returns the identity's credential or an error
	// wrapping ErrNotFound.
	FindByIdentityID(ctx context.Context, identityID ulid.ULID) (*Credential, error)

	// Save persists a changed password hash.
	Save(ctx context.Context, credential *Credential) error
}

// Repositories groups the stores that take part in one transaction.
type Repositories struct {
	Identities  IdentityDirectory
	Credentials CredentialStore
}

// TxRunner runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise; fn's
// error is returned as is.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
