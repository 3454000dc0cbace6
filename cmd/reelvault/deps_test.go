// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/ratelimit"
	"github.com/reelvault/reelvault/pkg/errutil"
)

func TestNewLimiter(t *testing.T) {
	limiter, err := newLimiter(context.Background(), RateLimitConfig{Backend: backendMemory, Window: time.Minute}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ratelimit.Memory{}, limiter)
	require.NoError(t, limiter.Close())

	_, err = newLimiter(context.Background(), RateLimitConfig{Backend: "etcd"}, nil)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestNewTokenIssuer(t *testing.T) {
	isolateEnv(t)
	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	issuer, err := newTokenIssuer(cfg, nil)
	require.NoError(t, err)
	assert.True(t, issuer.Insecure(), "development falls back to the built-in secret")
	assert.Equal(t, auth.DefaultTokenTTL, issuer.TTL())

	cfg.Env = envProduction
	_, err = newTokenIssuer(cfg, nil)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")

	cfg.Auth.JWTSecret = "s3cret"
	cfg.Auth.TokenTTL = time.Hour
	issuer, err = newTokenIssuer(cfg, nil)
	require.NoError(t, err)
	assert.False(t, issuer.Insecure())
	assert.Equal(t, time.Hour, issuer.TTL())
}

func TestOpenPool_RequiresURL(t *testing.T) {
	_, err := openPool(context.Background(), &Config{})
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")

	_, err = openPool(context.Background(), &Config{Database: DatabaseConfig{URL: "postgres://localhost:notaport/reelvault"}})
	errutil.AssertErrorCode(t, err, "DB_CONFIG_INVALID")
}
