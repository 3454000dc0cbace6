// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

//go:build integration

package store_test

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/reelvault/reelvault/internal/store"
)

var _ = Describe("Transactions", func() {
	BeforeEach(func() {
		_, err := suitePool.Exec(suiteCtx, "TRUNCATE identities CASCADE")
		Expect(err).NotTo(HaveOccurred())
	})

	insertIdentity := func(ctx context.Context, q store.DBTX, id, email string) error {
		_, err := q.Exec(ctx,
			`INSERT INTO identities (id, full_name, email, role, created_at, updated_at)
			 VALUES ($1, 'Test User', $2, 'USER', now(), now())`, id, email)
		return err
	}

	countIdentities := func() int {
		var n int
		Expect(suitePool.QueryRow(suiteCtx, "SELECT count(*) FROM identities").Scan(&n)).To(Succeed())
		return n
	}

	It("commits when the callback succeeds", func() {
		err := store.InTx(suiteCtx, suitePool, func(tx pgx.Tx) error {
			return insertIdentity(suiteCtx, tx, "01HZZZZZZZZZZZZZZZZZZZZZZ1", "a@example.com")
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(countIdentities()).To(Equal(1))
	})

	It("rolls back when the callback fails", func() {
		sentinel := errors.New("abort")
		err := store.InTx(suiteCtx, suitePool, func(tx pgx.Tx) error {
			if err := insertIdentity(suiteCtx, tx, "01HZZZZZZZZZZZZZZZZZZZZZZ2", "b@example.com"); err != nil {
				return err
			}
			return sentinel
		})
		Expect(err).To(MatchError(sentinel))
		Expect(countIdentities()).To(Equal(0))
	})

	It("reports case-insensitive email collisions as unique violations", func() {
		Expect(insertIdentity(suiteCtx, suitePool, "01HZZZZZZZZZZZZZZZZZZZZZZ3", "Case@Example.com")).To(Succeed())

		err := insertIdentity(suiteCtx, suitePool, "01HZZZZZZZZZZZZZZZZZZZZZZ4", "case@example.com")
		constraint, ok := store.UniqueViolation(err)
		Expect(ok).To(BeTrue())
		Expect(constraint).To(Equal("identities_email_key"))
	})

	It("reports readiness for a live pool", func() {
		Expect(store.ReadinessCheck(suitePool, time.Second)()).To(BeTrue())
	})
})
