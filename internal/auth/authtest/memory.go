// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package authtest

import (
	"context"
	"maps"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/reelvault/reelvault/internal/auth"
)

// MemoryStore is an in-memory identity directory, credential store, and
// transaction runner. InTx restores the previous state when fn fails.
type MemoryStore struct {
	mu          sync.Mutex
	identities  map[ulid.ULID]auth.Identity
	credentials map[ulid.ULID]auth.Credential // keyed by identity ID
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		identities:  make(map[ulid.ULID]auth.Identity),
		credentials: make(map[ulid.ULID]auth.Credential),
	}
}

// CreateIdentity implements auth.IdentityDirectory.
func (s *MemoryStore) CreateIdentity(_ context.Context, identity *auth.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.identities {
		if existing.Email == identity.Email {
			return oops.Code("IDENTITY_EMAIL_EXISTS").With("email", identity.Email).Wrap(auth.ErrAlreadyExists)
		}
	}
	s.identities[identity.ID] = *identity
	return nil
}

// FindByEmail implements auth.IdentityDirectory.
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, identity := range s.identities {
		if identity.Email == email {
			return &identity, nil
		}
	}
	return nil, oops.Code("IDENTITY_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
}

// FindByID implements auth.IdentityDirectory.
func (s *MemoryStore) FindByID(_ context.Context, id ulid.ULID) (*auth.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[id]
	if !ok {
		return nil, oops.Code("IDENTITY_NOT_FOUND").With("id", id.String()).Wrap(auth.ErrNotFound)
	}
	return &identity, nil
}

// Create implements auth.CredentialStore.
func (s *MemoryStore) Create(_ context.Context, credential *auth.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[credential.IdentityID]; !ok {
		return oops.Code("CREDENTIAL_CREATE_FAILED").Errorf("identity %s does not exist", credential.IdentityID)
	}
	if _, ok := s.credentials[credential.IdentityID]; ok {
		return oops.Code("CREDENTIAL_EXISTS").Wrap(auth.ErrAlreadyExists)
	}
	s.credentials[credential.IdentityID] = *credential
	return nil
}

// FindByIdentityID implements auth.CredentialStore.
func (s *MemoryStore) FindByIdentityID(_ context.Context, identityID ulid.ULID) (*auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credential, ok := s.credentials[identityID]
	if !ok {
		return nil, oops.Code("CREDENTIAL_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return &credential, nil
}

// Save implements auth.CredentialStore.
func (s *MemoryStore) Save(_ context.Context, credential *auth.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[credential.IdentityID]; !ok {
		return oops.Code("CREDENTIAL_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	s.credentials[credential.IdentityID] = *credential
	return nil
}

// InTx implements auth.TxRunner.
func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, repos auth.Repositories) error) error {
	s.mu.Lock()
	identities := maps.Clone(s.identities)
	credentials := maps.Clone(s.credentials)
	s.mu.Unlock()

	if err := fn(ctx, auth.Repositories{Identities: s, Credentials: s}); err != nil {
		s.mu.Lock()
		s.identities = identities
		s.credentials = credentials
		s.mu.Unlock()
		return err
	}
	return nil
}

// Counts returns the number of stored identities and credentials.
func (s *MemoryStore) Counts() (identities, credentials int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.identities), len(s.credentials)
}

// SetRole changes a stored identity's role.
func (s *MemoryStore) SetRole(id ulid.ULID, role auth.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity, ok := s.identities[id]; ok {
		identity.Role = role
		s.identities[id] = identity
	}
}

var (
	_ auth.IdentityDirectory = (*MemoryStore)(nil)
	_ auth.CredentialStore   = (*MemoryStore)(nil)
	_ auth.TxRunner          = (*MemoryStore)(nil)
)
