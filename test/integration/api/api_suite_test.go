// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

//go:build integration

// Package api_test drives the HTTP API end to end against PostgreSQL.
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/prometheus/client_golang/prometheus"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/reelvault/reelvault/internal/access"
	"github.com/reelvault/reelvault/internal/auth"
	authpg "github.com/reelvault/reelvault/internal/auth/postgres"
	"github.com/reelvault/reelvault/internal/catalog"
	catalogpg "github.com/reelvault/reelvault/internal/catalog/postgres"
	"github.com/reelvault/reelvault/internal/httpapi"
	"github.com/reelvault/reelvault/internal/observability"
	"github.com/reelvault/reelvault/internal/ratelimit"
	"github.com/reelvault/reelvault/internal/store"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Integration Suite")
}

// lockoutThreshold keeps the lockout flow short.
const lockoutThreshold = 3

// testEnv holds the resources shared by every spec.
type testEnv struct {
	ctx        context.Context
	container  *tcpostgres.PostgresContainer
	pool       *pgxpool.Pool
	identities *authpg.IdentityRepository
	limiter    *ratelimit.Memory
	films      *stubFilms
	metrics    *observability.Metrics
	server     *httptest.Server
}

var env *testEnv

// stubFilms stands in for SWAPI.
type stubFilms struct {
	films []catalog.Film
}

func (s *stubFilms) Films(context.Context) ([]catalog.Film, error) {
	return s.films, nil
}

var _ = BeforeSuite(func() {
	ctx := context.Background()
	env = &testEnv{ctx: ctx, films: &stubFilms{}}

	var err error
	env.container, err = tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("reelvault_test"),
		tcpostgres.WithUsername("reelvault"),
		tcpostgres.WithPassword("reelvault"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	Expect(err).NotTo(HaveOccurred())

	connStr, err := env.container.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	migrator, err := store.NewMigrator(connStr)
	Expect(err).NotTo(HaveOccurred())
	Expect(migrator.Up()).To(Succeed())
	Expect(migrator.Close()).To(Succeed())

	env.pool, err = store.Open(ctx, connStr, store.OpenOptions{})
	Expect(err).NotTo(HaveOccurred())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.metrics = observability.NewMetrics(prometheus.NewRegistry())

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: "integration-secret"})
	Expect(err).NotTo(HaveOccurred())

	hasher, err := auth.NewHasher(auth.AlgorithmBcrypt, bcrypt.MinCost)
	Expect(err).NotTo(HaveOccurred())

	env.identities = authpg.NewIdentityRepository(env.pool)
	env.limiter = ratelimit.NewMemory(time.Minute)
	authSvc, err := auth.NewService(auth.ServiceDeps{
		Identities:  env.identities,
		Credentials: authpg.NewCredentialRepository(env.pool),
		Tx:          authpg.NewTxRunner(env.pool),
		Hasher:      hasher,
		Tokens:      tokens,
	},
		auth.WithLogger(logger),
		auth.WithAttemptLimiter(env.limiter, auth.LockoutPolicy{Threshold: lockoutThreshold}),
		auth.WithObserver(env.metrics.ObserveAuth),
	)
	Expect(err).NotTo(HaveOccurred())

	catalogSvc, err := catalog.NewService(catalogpg.NewMovieRepository(env.pool), env.films, logger)
	Expect(err).NotTo(HaveOccurred())

	guard, err := access.NewGuard(httpapi.Routes(), tokens,
		access.WithDecisionObserver(func(op access.Operation, decision string) {
			env.metrics.ObserveDecision(string(op), decision)
		}),
	)
	Expect(err).NotTo(HaveOccurred())

	api, err := httpapi.New(httpapi.Deps{
		Addr:    "127.0.0.1:0",
		Auth:    authSvc,
		Catalog: catalogSvc,
		Guard:   guard,
		Logger:  logger,
		Metrics: env.metrics,
	})
	Expect(err).NotTo(HaveOccurred())
	env.server = httptest.NewServer(api.Handler())
})

var _ = AfterSuite(func() {
	if env == nil {
		return
	}
	if env.server != nil {
		env.server.Close()
	}
	if env.limiter != nil {
		Expect(env.limiter.Close()).To(Succeed())
	}
	if env.pool != nil {
		env.pool.Close()
	}
	if env.container != nil {
		Expect(env.container.Terminate(env.ctx)).To(Succeed())
	}
})

var _ = BeforeEach(func() {
	_, err := env.pool.Exec(env.ctx, "TRUNCATE identities, movies RESTART IDENTITY CASCADE")
	Expect(err).NotTo(HaveOccurred())
	env.films.films = nil
})

// call sends a JSON request and decodes the JSON response into a map.
func call(method, path, token string, body any) (int, map[string]any) {
	GinkgoHelper()

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(env.ctx, method, env.server.URL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.server.Client().Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	if len(raw) > 0 {
		Expect(json.Unmarshal(raw, &out)).To(Succeed(), string(raw))
	}
	return resp.StatusCode, out
}

// signUpAndIn registers an account and returns its access token.
func signUpAndIn(fullName, email, password string) string {
	GinkgoHelper()

	status, _ := call(http.MethodPost, "/auth/signup", "", map[string]string{
		"fullName": fullName, "email": email, "password": password,
	})
	Expect(status).To(Equal(http.StatusCreated))
	return signIn(email, password)
}

func signIn(email, password string) string {
	GinkgoHelper()

	status, body := call(http.MethodPost, "/auth/signin", "", map[string]string{
		"email": email, "password": password,
	})
	Expect(status).To(Equal(http.StatusOK))
	token, ok := body["accessToken"].(string)
	Expect(ok).To(BeTrue())
	return token
}

// promote grants ADMIN to the account and returns a fresh token, since
// the role travels inside the token.
func promote(email, password string) string {
	GinkgoHelper()

	identity, err := env.identities.FindByEmail(env.ctx, email)
	Expect(err).NotTo(HaveOccurred())
	Expect(env.identities.SetRole(env.ctx, identity.ID, auth.RoleAdmin)).To(Succeed())
	return signIn(email, password)
}
