// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

// Package auth provides account authentication for Reelvault.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewIdentity - creates an Identity with a fresh ID and normalized email
//   - NewCredential - binds a password hash to an identity
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Services
//
// Service coordinates registration, login, and password change over an
// IdentityDirectory, a CredentialStore, a PasswordHasher, and a TokenIssuer.
// Registration writes the identity and its credential through a TxRunner so
// neither exists without the other.
//
// # Errors
//
// Errors carry an oops code and an errutil kind. Messages meant for clients
// are attached with Public; everything else stays in logs.
package auth
