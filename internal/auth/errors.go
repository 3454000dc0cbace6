// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned by storage when a uniqueness constraint rejects a write.
var ErrAlreadyExists = errors.New("already exists")

// Error codes surfaced by this package.
const (
	CodeInvalidCredentials       = "AUTH_INVALID_CREDENTIALS"
	CodeCurrentPasswordIncorrect = "AUTH_CURRENT_PASSWORD_INCORRECT"
	CodeUserNotFound             = "AUTH_USER_NOT_FOUND"
	CodeEmailTaken               = "AUTH_EMAIL_TAKEN"
	CodeCredentialExists         = "AUTH_CREDENTIAL_EXISTS"
	CodeInvalidInput             = "AUTH_INVALID_INPUT"
	CodeWeakPassword             = "AUTH_WEAK_PASSWORD"
	CodePasswordUnchanged        = "AUTH_PASSWORD_UNCHANGED"
	CodeTokenInvalid             = "AUTH_TOKEN_INVALID"
	CodeTooManyAttempts          = "AUTH_TOO_MANY_ATTEMPTS"
)

// User-facing messages. These are part of the API contract.
const (
	MsgInvalidCredentials       = "Invalid credentials"
	MsgUserNotFound             = "User not found"
	MsgCurrentPasswordIncorrect = "Current password is incorrect"
	MsgEmailTaken               = "Email is already registered"
	MsgTooManyAttempts          = "Too many failed login attempts, try again later"

	MsgRegistered      = "User registered successfully"
	MsgLoggedIn        = "User logged in successfully"
	MsgPasswordChanged = "Password changed successfully"
)
