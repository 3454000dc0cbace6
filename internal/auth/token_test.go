// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/pkg/errutil"
)

const testSecret = "test-secret-with-enough-entropy-0123456789"

func newIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: testSecret, Production: true})
	require.NoError(t, err)
	return issuer
}

func decodePayload(t *testing.T, token string) map[string]any {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestNewTokenIssuer(t *testing.T) {
	t.Run("missing secret is fatal in production", func(t *testing.T) {
		issuer, err := auth.NewTokenIssuer(auth.TokenConfig{Production: true})
		require.Error(t, err)
		assert.Nil(t, issuer)
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})

	t.Run("missing secret falls back outside production", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		issuer, err := auth.NewTokenIssuer(auth.TokenConfig{Logger: logger})
		require.NoError(t, err)
		assert.True(t, issuer.Insecure())
		assert.Equal(t, auth.DefaultTokenTTL, issuer.TTL())
		assert.Contains(t, buf.String(), `"level":"WARN"`)
		assert.Contains(t, buf.String(), "no jwt secret configured")
	})

	t.Run("configured secret logs nothing", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: testSecret, Logger: slog.New(slog.NewJSONHandler(&buf, nil))})
		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})

	t.Run("configured secret is not insecure", func(t *testing.T) {
		assert.False(t, newIssuer(t).Insecure())
	})

	t.Run("rejects negative ttl", func(t *testing.T) {
		_, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: testSecret, TTL: -time.Minute})
		errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	})
}

func TestTokenIssuer_Issue(t *testing.T) {
	issuer := newIssuer(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer.SetClock(func() time.Time { return now })

	id := ulid.Make().String()
	token, err := issuer.Issue(auth.Principal{ID: id, Email: "ada@x.com", Role: auth.RoleUser})
	require.NoError(t, err)

	payload := decodePayload(t, token)
	assert.Equal(t, id, payload["id"])
	assert.Equal(t, "ada@x.com", payload["email"])
	assert.Equal(t, "USER", payload["role"])
	assert.Equal(t, auth.TokenIssuerName, payload["iss"])
	assert.EqualValues(t, now.Add(2*time.Hour).Unix(), payload["exp"])

	t.Run("rejects incomplete principal", func(t *testing.T) {
		_, err := issuer.Issue(auth.Principal{Email: "ada@x.com", Role: auth.RoleUser})
		errutil.AssertErrorCode(t, err, "AUTH_TOKEN_ISSUE_FAILED")

		_, err = issuer.Issue(auth.Principal{ID: id, Role: "ROOT"})
		errutil.AssertErrorCode(t, err, "AUTH_TOKEN_ISSUE_FAILED")
	})
}

func TestTokenIssuer_Verify(t *testing.T) {
	issuer := newIssuer(t)
	principal := auth.Principal{ID: ulid.Make().String(), Email: "admin@x.com", Role: auth.RoleAdmin}

	token, err := issuer.Issue(principal)
	require.NoError(t, err)

	t.Run("round trips the principal", func(t *testing.T) {
		got, err := issuer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, principal, got)
	})

	other, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: "a-completely-different-secret-value"})
	require.NoError(t, err)
	foreign, err := other.Issue(principal)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forgedPayload := base64.RawURLEncoding.EncodeToString([]byte(`{"id":"x","email":"e","role":"ADMIN","iss":"reelvault","exp":9999999999}`))
	tampered := parts[0] + "." + forgedPayload + "." + parts[2]

	none := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{ID: principal.ID, Role: auth.RoleAdmin})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		ID: principal.ID, Role: auth.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: auth.TokenIssuerName},
	})
	noExpToken, err := noExp.SignedString([]byte(testSecret))
	require.NoError(t, err)

	badRole := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		ID: principal.ID, Role: "ROOT",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    auth.TokenIssuerName,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	badRoleToken, err := badRole.SignedString([]byte(testSecret))
	require.NoError(t, err)

	invalid := map[string]string{
		"empty":               "",
		"garbage":             "not.a.token",
		"foreign secret":      foreign,
		"tampered payload":    tampered,
		"alg none":            noneToken,
		"missing expiry":      noExpToken,
		"unknown role claim":  badRoleToken,
		"truncated signature": token[:len(token)-4],
	}
	for name, tok := range invalid {
		t.Run("rejects "+name, func(t *testing.T) {
			got, err := issuer.Verify(tok)
			require.Error(t, err)
			assert.Equal(t, auth.Principal{}, got)
			errutil.AssertErrorCode(t, err, auth.CodeTokenInvalid)
			errutil.AssertErrorKind(t, err, errutil.KindUnauthorized)
		})
	}

	t.Run("rejects expired token", func(t *testing.T) {
		past := time.Now().Add(-3 * time.Hour)
		issuer.SetClock(func() time.Time { return past })
		expired, err := issuer.Issue(principal)
		require.NoError(t, err)
		issuer.SetClock(time.Now)

		_, err = issuer.Verify(expired)
		errutil.AssertErrorCode(t, err, auth.CodeTokenInvalid)
	})
}
