// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package auth

import (
	"context"
	"time"
)

// Login throttling defaults.
const (
	// DefaultLockoutThreshold is the number of failures that blocks further attempts.
	DefaultLockoutThreshold = 7

	// DefaultLockoutWindow is how long failures are remembered.
	DefaultLockoutWindow = 15 * time.Minute
)

// AttemptLimiter counts failed login attempts per key within a sliding
// or fixed window chosen by the implementation.
type AttemptLimiter interface {
	// Failures returns the current failure count for key.
	Failures(ctx context.Context, key string) (int, error)

	// RecordFailure increments the failure count and returns the new value.
	RecordFailure(ctx context.Context, key string) (int, error)

	// Reset clears the failure count for key.
	Reset(ctx context.Context, key string) error
}

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	// IsLockedOut indicates no further attempts are accepted for now.
	IsLockedOut bool
}

// LockoutPolicy decides when an account key is locked.
type LockoutPolicy struct {
	Threshold int
}

// CheckFailures evaluates the throttle state for a failure count.
func (p LockoutPolicy) CheckFailures(failures int) RateLimitResult {
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}

	return RateLimitResult{IsLockedOut: failures >= threshold}
}

// loginKey is the limiter key for an email address.
func loginKey(email string) string {
	return "login:" + email
}
