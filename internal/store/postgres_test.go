// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault/pkg/errutil"
)

func TestInTx_CommitsOnSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO identities").
		WithArgs("01H0000000000000000000000A").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = InTx(context.Background(), mock, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(context.Background(), "INSERT INTO identities (id) VALUES ($1)", "01H0000000000000000000000A")
		return execErr
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_RollsBackAndReturnsCallbackError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	callbackErr := oops.Code("AUTH_EMAIL_TAKEN").Errorf("taken")
	err = InTx(context.Background(), mock, func(pgx.Tx) error {
		return callbackErr
	})
	require.ErrorIs(t, err, callbackErr)
	errutil.AssertErrorCode(t, err, "AUTH_EMAIL_TAKEN")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_BeginFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	err = InTx(context.Background(), mock, func(pgx.Tx) error {
		called = true
		return nil
	})
	errutil.AssertErrorCode(t, err, "DB_TX_BEGIN_FAILED")
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_CommitFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err = InTx(context.Background(), mock, func(pgx.Tx) error { return nil })
	errutil.AssertErrorCode(t, err, "DB_TX_COMMIT_FAILED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueViolation(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantConstraint string
		wantOK         bool
	}{
		{
			name:           "unique violation",
			err:            &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "identities_email_key"},
			wantConstraint: "identities_email_key",
			wantOK:         true,
		},
		{
			name:           "wrapped unique violation",
			err:            oops.Wrap(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "credentials_identity_id_key"}),
			wantConstraint: "credentials_identity_id_key",
			wantOK:         true,
		},
		{
			name: "other postgres error",
			err:  &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "credentials_identity_id_fkey"},
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			constraint, ok := UniqueViolation(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantConstraint, constraint)
		})
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestReadinessCheck(t *testing.T) {
	assert.True(t, ReadinessCheck(stubPinger{}, time.Second)())
	assert.False(t, ReadinessCheck(stubPinger{err: errors.New("down")}, time.Second)())
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := Open(context.Background(), "postgres://%zz", OpenOptions{})
	errutil.AssertErrorCode(t, err, "DB_CONFIG_INVALID")
}
