// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/auth/postgres"
	"github.com/reelvault/reelvault/pkg/errutil"
)

var _ = Describe("Auth service on PostgreSQL", func() {
	var (
		svc    *auth.Service
		tokens *auth.TokenIssuer
	)

	BeforeEach(func() {
		hasher, err := auth.NewBcryptHasher(4)
		Expect(err).NotTo(HaveOccurred())
		tokens, err = auth.NewTokenIssuer(auth.TokenConfig{Secret: "integration-secret"})
		Expect(err).NotTo(HaveOccurred())

		svc, err = auth.NewService(auth.ServiceDeps{
			Identities:  postgres.NewIdentityRepository(testPool),
			Credentials: postgres.NewCredentialRepository(testPool),
			Tx:          postgres.NewTxRunner(testPool),
			Hasher:      hasher,
			Tokens:      tokens,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	register := func(email string) (*auth.RegisterResult, error) {
		return svc.RegisterUser(testCtx, auth.RegisterInput{
			FullName: "Leia Organa",
			Email:    email,
			Password: "Alderaan1",
		})
	}

	It("registers, signs in and changes the password", func() {
		res, err := register("leia@rebellion.org")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Message).To(Equal(auth.MsgRegistered))

		login, err := svc.LoginUser(testCtx, auth.LoginInput{Email: "LEIA@rebellion.org", Password: "Alderaan1"})
		Expect(err).NotTo(HaveOccurred())

		principal, err := tokens.Verify(login.AccessToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(principal.Email).To(Equal("leia@rebellion.org"))
		Expect(principal.Role).To(Equal(auth.RoleUser))

		identity, err := postgres.NewIdentityRepository(testPool).FindByEmail(testCtx, "leia@rebellion.org")
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.ChangePassword(testCtx, identity.ID, auth.ChangePasswordInput{
			CurrentPassword: "Alderaan1",
			NewPassword:     "Hoth2Echo",
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.LoginUser(testCtx, auth.LoginInput{Email: "leia@rebellion.org", Password: "Alderaan1"})
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindUnauthorized))

		_, err = svc.LoginUser(testCtx, auth.LoginInput{Email: "leia@rebellion.org", Password: "Hoth2Echo"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a second account for the same email in any case", func() {
		_, err := register("han@falcon.net")
		Expect(err).NotTo(HaveOccurred())

		_, err = register("HAN@falcon.net")
		Expect(errutil.KindOf(err)).To(Equal(errutil.KindConflict))
		Expect(errutil.PublicMessage(err, "")).To(Equal(auth.MsgEmailTaken))
	})

	It("leaves no identity behind when the credential insert fails", func() {
		runner := postgres.NewTxRunner(testPool)
		identity, err := auth.NewIdentity("Orphan", "orphan@example.com", auth.RoleUser)
		Expect(err).NotTo(HaveOccurred())

		boom := errors.New("credential write failed")
		err = runner.InTx(testCtx, func(ctx context.Context, repos auth.Repositories) error {
			if err := repos.Identities.CreateIdentity(ctx, identity); err != nil {
				return err
			}
			return boom
		})
		Expect(err).To(MatchError(boom))

		_, err = postgres.NewIdentityRepository(testPool).FindByEmail(testCtx, "orphan@example.com")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("enforces one credential per identity", func() {
		identity, err := auth.NewIdentity("Solo", "solo@example.com", auth.RoleUser)
		Expect(err).NotTo(HaveOccurred())
		Expect(postgres.NewIdentityRepository(testPool).CreateIdentity(testCtx, identity)).To(Succeed())

		creds := postgres.NewCredentialRepository(testPool)
		first, err := auth.NewCredential(identity.ID, "$2a$04$first")
		Expect(err).NotTo(HaveOccurred())
		Expect(creds.Create(testCtx, first)).To(Succeed())

		second, err := auth.NewCredential(identity.ID, "$2a$04$second")
		Expect(err).NotTo(HaveOccurred())
		Expect(creds.Create(testCtx, second)).To(MatchError(auth.ErrAlreadyExists))
	})
})
