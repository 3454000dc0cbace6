// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

// Package authtest provides test doubles for the auth package.
package authtest

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/reelvault/reelvault/internal/auth"
)

// MockIdentityDirectory is a testify mock of auth.IdentityDirectory.
type MockIdentityDirectory struct {
	mock.Mock
}

// NewMockIdentityDirectory creates a mock that asserts its expectations on cleanup.
func NewMockIdentityDirectory(t *testing.T) *MockIdentityDirectory {
	m := &MockIdentityDirectory{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// CreateIdentity implements auth.IdentityDirectory.
func (m *MockIdentityDirectory) CreateIdentity(ctx context.Context, identity *auth.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

// FindByEmail implements auth.IdentityDirectory.
func (m *MockIdentityDirectory) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	args := m.Called(ctx, email)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

// FindByID implements auth.IdentityDirectory.
func (m *MockIdentityDirectory) FindByID(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	args := m.Called(ctx, id)
	identity, _ := args.Get(0).(*auth.Identity)
	return identity, args.Error(1)
}

// MockCredentialStore is a testify mock of auth.CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

// NewMockCredentialStore creates a mock that asserts its expectations on cleanup.
func NewMockCredentialStore(t *testing.T) *MockCredentialStore {
	m := &MockCredentialStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Create implements auth.CredentialStore.
func (m *MockCredentialStore) Create(ctx context.Context, credential *auth.Credential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

// FindByIdentityID implements auth.CredentialStore.
func (m *MockCredentialStore) FindByIdentityID(ctx context.Context, identityID ulid.ULID) (*auth.Credential, error) {
	args := m.Called(ctx, identityID)
	credential, _ := args.Get(0).(*auth.Credential)
	return credential, args.Error(1)
}

// Save implements auth.CredentialStore.
func (m *MockCredentialStore) Save(ctx context.Context, credential *auth.Credential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

// MockAttemptLimiter is a testify mock of auth.AttemptLimiter.
type MockAttemptLimiter struct {
	mock.Mock
}

// NewMockAttemptLimiter creates a mock that asserts its expectations on cleanup.
func NewMockAttemptLimiter(t *testing.T) *MockAttemptLimiter {
	m := &MockAttemptLimiter{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Failures implements auth.AttemptLimiter.
func (m *MockAttemptLimiter) Failures(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

// RecordFailure implements auth.AttemptLimiter.
func (m *MockAttemptLimiter) RecordFailure(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

// Reset implements auth.AttemptLimiter.
func (m *MockAttemptLimiter) Reset(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// DirectTx is an auth.TxRunner that calls fn with fixed repositories and no
// real transaction. Rollback is not simulated.
type DirectTx struct {
	Repos auth.Repositories
}

// InTx implements auth.TxRunner.
func (d DirectTx) InTx(ctx context.Context, fn func(ctx context.Context, repos auth.Repositories) error) error {
	return fn(ctx, d.Repos)
}

// Verify interfaces are satisfied.
var (
	_ auth.IdentityDirectory = (*MockIdentityDirectory)(nil)
	_ auth.CredentialStore   = (*MockCredentialStore)(nil)
	_ auth.AttemptLimiter    = (*MockAttemptLimiter)(nil)
	_ auth.TxRunner          = DirectTx{}
)
