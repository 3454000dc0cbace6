// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth

import (
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/reelvault/reelvault/pkg/errutil"
)

// DefaultTokenTTL is how long an access token stays valid.
const DefaultTokenTTL = 2 * time.Hour

// TokenIssuerName is written to and required in the iss claim.
const TokenIssuerName = "reelvault"

// developmentSecret signs tokens when no secret is configured outside
// production. It is public and must never protect real data.
//
//nolint:gosec // G101: well-known development fallback, rejected in production.
const developmentSecret = "reelvault-development-secret-do-not-use"

// MsgTokenInvalid is the public message for missing, expired, or tampered tokens.
const MsgTokenInvalid = "Unauthorized"

// Principal is the identity data carried inside a token.
type Principal struct {
	ID    string
	Email string
	Role  Role
}

// Claims is the JWT payload: {id, email, role} plus registered claims.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenIssuer.
type TokenConfig struct {
	// Secret is the HMAC key. Required when Production is set.
	Secret string
	// TTL defaults to DefaultTokenTTL.
	TTL time.Duration
	// Production disables the development secret fallback.
	Production bool
	// Logger receives the development secret warning. Defaults to slog.Default().
	Logger *slog.Logger
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret   []byte
	ttl      time.Duration
	insecure bool
	now      func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. A missing secret is a configuration
// error in production; elsewhere a development secret is used and a warning
// is logged.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < 0 {
		return nil, oops.Code("CONFIG_INVALID").With("ttl", ttl.String()).Errorf("token ttl must be positive")
	}

	issuer := &TokenIssuer{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		now:    time.Now,
	}
	if cfg.Secret == "" {
		if cfg.Production {
			return nil, oops.Code("CONFIG_INVALID").
				With("setting", "auth.jwt_secret").
				Errorf("jwt secret is required in production")
		}
		logger := cfg.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("no jwt secret configured, using the development secret; never run this in production")
		issuer.secret = []byte(developmentSecret)
		issuer.insecure = true
	}
	return issuer, nil
}

// Insecure reports whether the development secret is in use.
func (t *TokenIssuer) Insecure() bool {
	return t.insecure
}

// TTL returns the lifetime of issued tokens.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for p that expires after the configured TTL.
func (t *TokenIssuer) Issue(p Principal) (string, error) {
	if p.ID == "" || !p.Role.Valid() {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("role", string(p.Role)).
			Errorf("principal must have an id and a known role")
	}

	now := t.now()
	claims := Claims{
		ID:    p.ID,
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuerName,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_ISSUE_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks the token's signature, algorithm, issuer, and expiry and
// returns its principal. Any failure yields a single unauthorized error.
func (t *TokenIssuer) Verify(token string) (Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(TokenIssuerName),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return Principal{}, invalidToken(err)
	}
	if claims.ID == "" || !claims.Role.Valid() {
		return Principal{}, invalidToken(nil)
	}

	return Principal{ID: claims.ID, Email: claims.Email, Role: claims.Role}, nil
}

func invalidToken(cause error) error {
	b := errutil.Unauthorized(CodeTokenInvalid).Public(MsgTokenInvalid)
	if cause != nil {
		return b.Wrap(cause)
	}
	return b.Errorf("token claims are incomplete")
}
