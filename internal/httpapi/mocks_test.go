// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package httpapi_test

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/catalog"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) RegisterUser(ctx context.Context, in auth.RegisterInput) (*auth.RegisterResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*auth.RegisterResult)
	return res, args.Error(1)
}

func (m *mockAuth) LoginUser(ctx context.Context, in auth.LoginInput) (*auth.LoginResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*auth.LoginResult)
	return res, args.Error(1)
}

func (m *mockAuth) ChangePassword(ctx context.Context, id ulid.ULID, in auth.ChangePasswordInput) (*auth.MessageResult, error) {
	args := m.Called(ctx, id, in)
	res, _ := args.Get(0).(*auth.MessageResult)
	return res, args.Error(1)
}

func (m *mockAuth) Profile(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*auth.Identity)
	return res, args.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) List(ctx context.Context, f catalog.Filter) (*catalog.Page, error) {
	args := m.Called(ctx, f)
	res, _ := args.Get(0).(*catalog.Page)
	return res, args.Error(1)
}

func (m *mockCatalog) Get(ctx context.Context, id int64) (*catalog.Movie, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*catalog.Movie)
	return res, args.Error(1)
}

func (m *mockCatalog) Create(ctx context.Context, in catalog.MovieInput) (*catalog.Movie, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*catalog.Movie)
	return res, args.Error(1)
}

func (m *mockCatalog) Update(ctx context.Context, id int64, u catalog.MovieUpdate) (*catalog.UpdateResult, error) {
	args := m.Called(ctx, id, u)
	res, _ := args.Get(0).(*catalog.UpdateResult)
	return res, args.Error(1)
}

func (m *mockCatalog) Delete(ctx context.Context, id int64) (*catalog.DeleteResult, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*catalog.DeleteResult)
	return res, args.Error(1)
}

func (m *mockCatalog) Sync(ctx context.Context) (*catalog.SyncResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*catalog.SyncResult)
	return res, args.Error(1)
}

type observedRequest struct {
	route  string
	status int
}

type recordingObserver struct {
	mu       sync.Mutex
	requests []observedRequest
}

func (o *recordingObserver) ObserveRequest(route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, observedRequest{route: route, status: status})
}

func (o *recordingObserver) all() []observedRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]observedRequest(nil), o.requests...)
}
