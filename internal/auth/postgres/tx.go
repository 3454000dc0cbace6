// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/store"
)

// TxRunner implements auth.TxRunner by binding fresh repositories to a
// database transaction.
type TxRunner struct {
	db store.Beginner
}

// NewTxRunner creates a TxRunner that opens transactions on db.
func NewTxRunner(db store.Beginner) *TxRunner {
	return &TxRunner{db: db}
}

// InTx runs fn with repositories scoped to one transaction.
func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context, repos auth.Repositories) error) error {
	return store.InTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, auth.Repositories{
			Identities:  NewIdentityRepository(tx),
			Credentials: NewCredentialRepository(tx),
		})
	})
}

var _ auth.TxRunner = (*TxRunner)(nil)
