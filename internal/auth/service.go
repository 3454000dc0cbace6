// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/reelvault/reelvault/pkg/errutil"
)

// TokenSigner issues access tokens for a principal.
type TokenSigner interface {
	Issue(p Principal) (string, error)
}

// Observer receives the outcome of each service operation, e.g. for metrics.
type Observer func(operation, outcome string)

// Operation outcomes reported to an Observer.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// RegisterInput is the registration request.
type RegisterInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the login request.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordInput is the password change request.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// RegisteredUser echoes the identity-facing fields of a new account.
type RegisteredUser struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// RegisterResult is returned by RegisterUser.
type RegisterResult struct {
	Message string         `json:"message"`
	User    RegisteredUser `json:"user"`
}

// LoginResult is returned by LoginUser.
type LoginResult struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
}

// MessageResult is a bare confirmation.
type MessageResult struct {
	Message string `json:"message"`
}

// ServiceDeps are the collaborators required by Service.
type ServiceDeps struct {
	Identities  IdentityDirectory
	Credentials CredentialStore
	Tx          TxRunner
	Hasher      PasswordHasher
	Tokens      TokenSigner
}

// ServiceOption configures optional Service behavior.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAttemptLimiter enables login throttling.
func WithAttemptLimiter(limiter AttemptLimiter, policy LockoutPolicy) ServiceOption {
	return func(s *Service) {
		s.limiter = limiter
		s.lockout = policy
	}
}

// WithObserver registers a callback for operation outcomes.
func WithObserver(observe Observer) ServiceOption {
	return func(s *Service) {
		if observe != nil {
			s.observe = observe
		}
	}
}

// Service implements registration, login, and password change.
type Service struct {
	identities  IdentityDirectory
	credentials CredentialStore
	tx          TxRunner
	hasher      PasswordHasher
	tokens      TokenSigner
	limiter     AttemptLimiter
	lockout     LockoutPolicy
	logger      *slog.Logger
	observe     Observer

	// dummyHash is verified when no credential exists so that unknown
	// emails cost the same as wrong passwords.
	dummyHash string
}

// NewService creates a Service.
func NewService(deps ServiceDeps, opts ...ServiceOption) (*Service, error) {
	switch {
	case deps.Identities == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("identity directory is required")
	case deps.Credentials == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("credential store is required")
	case deps.Tx == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("transaction runner is required")
	case deps.Hasher == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	case deps.Tokens == nil:
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token signer is required")
	}

	s := &Service{
		identities:  deps.Identities,
		credentials: deps.Credentials,
		tx:          deps.Tx,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		logger:      slog.Default(),
		observe:     func(string, string) {},
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := s.hasher.Hash(randomPassword())
	if err != nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").With("operation", "compute dummy hash").Wrap(err)
	}
	s.dummyHash = dummy
	return s, nil
}

// RegisterUser creates an identity with the default role and its credential
// in one transaction.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	const op = "register"

	if err := firstError(CheckFullName(in.FullName), CheckEmail(in.Email), CheckPassword(in.Password)); err != nil {
		s.observe(op, OutcomeRejected)
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.observe(op, OutcomeError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	identity, err := NewIdentity(in.FullName, in.Email, DefaultRole)
	if err != nil {
		s.observe(op, OutcomeError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").Wrap(err)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Identities.CreateIdentity(ctx, identity); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				return errutil.Conflict(CodeEmailTaken).
					In("auth").
					With("email", identity.Email).
					Public(MsgEmailTaken).
					Errorf("email already registered")
			}
			return oops.Code("AUTH_REGISTER_FAILED").With("operation", "create identity").Wrap(err)
		}

		credential, err := NewCredential(identity.ID, hash)
		if err != nil {
			return oops.Code("AUTH_REGISTER_FAILED").Wrap(err)
		}
		if err := repos.Credentials.Create(ctx, credential); err != nil {
			if errors.Is(err, ErrAlreadyExists) {
				return errutil.Conflict(CodeCredentialExists).
					In("auth").
					With("identity_id", identity.ID.String()).
					Errorf("identity already has a credential")
			}
			return oops.Code("AUTH_REGISTER_FAILED").With("operation", "create credential").Wrap(err)
		}
		return nil
	})
	if err != nil {
		s.observe(op, outcomeFor(err))
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "identity_id", identity.ID.String())
	s.observe(op, OutcomeSuccess)
	return &RegisterResult{
		Message: MsgRegistered,
		User:    RegisteredUser{FullName: identity.FullName, Email: identity.Email},
	}, nil
}

// LoginUser verifies an email and password and issues an access token whose
// claims come from the stored identity. Unknown emails, missing credentials,
// and wrong passwords all fail with the same unauthorized error.
func (s *Service) LoginUser(ctx context.Context, in LoginInput) (*LoginResult, error) {
	const op = "login"

	email := NormalizeEmail(in.Email)
	if email == "" {
		s.observe(op, OutcomeRejected)
		return nil, invalidField("email", CodeInvalidInput, MsgEmailInvalid)
	}
	if in.Password == "" {
		s.observe(op, OutcomeRejected)
		return nil, invalidField("password", CodeInvalidInput, MsgPasswordRequired)
	}

	if err := s.checkLockout(ctx, email); err != nil {
		s.observe(op, OutcomeRejected)
		return nil, err
	}

	identity, credential, err := s.lookupLogin(ctx, email)
	if err != nil {
		s.observe(op, OutcomeError)
		return nil, err
	}

	targetHash := s.dummyHash
	if credential != nil {
		targetHash = credential.PasswordHash
	}
	valid := s.hasher.Verify(in.Password, targetHash)

	if identity == nil || credential == nil || !valid {
		s.recordFailure(ctx, email)
		s.observe(op, OutcomeRejected)
		return nil, invalidCredentials()
	}

	s.resetFailures(ctx, email)
	s.upgradeHash(ctx, credential, in.Password)

	token, err := s.tokens.Issue(identity.Principal())
	if err != nil {
		s.observe(op, OutcomeError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "issue token").Wrap(err)
	}

	s.logger.InfoContext(ctx, "user logged in", "identity_id", identity.ID.String())
	s.observe(op, OutcomeSuccess)
	return &LoginResult{Message: MsgLoggedIn, AccessToken: token}, nil
}

// ChangePassword replaces the credential's hash after verifying the current
// password. The new password must satisfy CheckPassword and differ from the
// current one. Those input checks run before the credential lookup, so a
// deleted identity sending a weak password gets a validation error rather
// than a not-found one.
func (s *Service) ChangePassword(ctx context.Context, identityID ulid.ULID, in ChangePasswordInput) (*MessageResult, error) {
	const op = "change_password"

	if in.CurrentPassword == "" {
		s.observe(op, OutcomeRejected)
		return nil, invalidField("currentPassword", CodeInvalidInput, MsgPasswordRequired)
	}
	if err := CheckPassword(in.NewPassword); err != nil {
		s.observe(op, OutcomeRejected)
		return nil, err
	}
	if in.NewPassword == in.CurrentPassword {
		s.observe(op, OutcomeRejected)
		return nil, invalidField("newPassword", CodePasswordUnchanged, MsgPasswordUnchanged)
	}

	credential, err := s.credentials.FindByIdentityID(ctx, identityID)
	if errors.Is(err, ErrNotFound) {
		s.observe(op, OutcomeRejected)
		return nil, userNotFound(identityID)
	}
	if err != nil {
		s.observe(op, OutcomeError)
		return nil, oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "find credential").
			With("identity_id", identityID.String()).
			Wrap(err)
	}

	if !s.hasher.Verify(in.CurrentPassword, credential.PasswordHash) {
		s.observe(op, OutcomeRejected)
		return nil, errutil.Unauthorized(CodeCurrentPasswordIncorrect).
			In("auth").
			With("identity_id", identityID.String()).
			Public(MsgCurrentPasswordIncorrect).
			Errorf("current password is incorrect")
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		s.observe(op, OutcomeError)
		return nil, oops.Code("AUTH_CHANGE_PASSWORD_FAILED").With("operation", "hash password").Wrap(err)
	}
	credential.ReplaceHash(hash)

	if err := s.credentials.Save(ctx, credential); err != nil {
		s.observe(op, OutcomeError)
		return nil, oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "save credential").
			With("identity_id", identityID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password changed", "identity_id", identityID.String())
	s.observe(op, OutcomeSuccess)
	return &MessageResult{Message: MsgPasswordChanged}, nil
}

// Profile returns the identity for id.
func (s *Service) Profile(ctx context.Context, id ulid.ULID) (*Identity, error) {
	identity, err := s.identities.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, userNotFound(id)
	}
	if err != nil {
		return nil, oops.Code("AUTH_PROFILE_FAILED").With("identity_id", id.String()).Wrap(err)
	}
	return identity, nil
}

// IssueTokenFor issues a token for the identity registered under email
// without checking a password. It backs operator tooling only.
func (s *Service) IssueTokenFor(ctx context.Context, email string) (string, error) {
	identity, err := s.identities.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return "", errutil.NotFound(CodeUserNotFound).With("email", email).Public(MsgUserNotFound).Errorf("user not found")
	}
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Wrap(err)
	}
	token, err := s.tokens.Issue(identity.Principal())
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Wrap(err)
	}
	return token, nil
}

// lookupLogin returns nil values without error when the identity or its
// credential is missing.
func (s *Service) lookupLogin(ctx context.Context, email string) (*Identity, *Credential, error) {
	identity, err := s.identities.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "find identity").Wrap(err)
	}

	credential, err := s.credentials.FindByIdentityID(ctx, identity.ID)
	if errors.Is(err, ErrNotFound) {
		s.logger.WarnContext(ctx, "identity has no credential", "identity_id", identity.ID.String())
		return identity, nil, nil
	}
	if err != nil {
		return nil, nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find credential").
			With("identity_id", identity.ID.String()).
			Wrap(err)
	}
	return identity, credential, nil
}

func (s *Service) checkLockout(ctx context.Context, email string) error {
	if s.limiter == nil {
		return nil
	}
	failures, err := s.limiter.Failures(ctx, loginKey(email))
	if err != nil {
		errutil.LogError(s.logger, "login limiter unavailable", err)
		return nil
	}
	if s.lockout.CheckFailures(failures).IsLockedOut {
		return errutil.RateLimited(CodeTooManyAttempts).
			In("auth").
			With("failures", failures).
			Public(MsgTooManyAttempts).
			Errorf("too many failed login attempts")
	}
	return nil
}

func (s *Service) recordFailure(ctx context.Context, email string) {
	if s.limiter == nil {
		return
	}
	failures, err := s.limiter.RecordFailure(ctx, loginKey(email))
	if err != nil {
		errutil.LogError(s.logger, "failed to record login failure", err)
		return
	}
	result := s.lockout.CheckFailures(failures)
	s.logger.DebugContext(ctx, "login failure recorded",
		"failures", failures,
		"locked_out", result.IsLockedOut,
	)
}

func (s *Service) resetFailures(ctx context.Context, email string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, loginKey(email)); err != nil {
		errutil.LogError(s.logger, "failed to reset login failures", err)
	}
}

// upgradeHash rehashes credentials stored with weaker parameters. Failures
// are logged and never fail the login.
func (s *Service) upgradeHash(ctx context.Context, credential *Credential, password string) {
	if !s.hasher.NeedsUpgrade(credential.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		errutil.LogError(s.logger, "failed to upgrade password hash", err)
		return
	}
	previous := credential.PasswordHash
	credential.ReplaceHash(hash)
	if err := s.credentials.Save(ctx, credential); err != nil {
		credential.PasswordHash = previous
		errutil.LogError(s.logger, "failed to save upgraded password hash", err)
		return
	}
	s.logger.InfoContext(ctx, "password hash upgraded", "identity_id", credential.IdentityID.String())
}

func invalidCredentials() error {
	return errutil.Unauthorized(CodeInvalidCredentials).
		In("auth").
		Public(MsgInvalidCredentials).
		Errorf("invalid credentials")
}

func userNotFound(id ulid.ULID) error {
	return errutil.NotFound(CodeUserNotFound).
		In("auth").
		With("identity_id", id.String()).
		Public(MsgUserNotFound).
		Errorf("user not found")
}

func outcomeFor(err error) string {
	if errutil.KindOf(err) == errutil.KindInternal {
		return OutcomeError
	}
	return OutcomeRejected
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func randomPassword() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b) //nolint:errcheck // crypto/rand.Read never fails on supported platforms
	return base64.RawURLEncoding.EncodeToString(b)
}
