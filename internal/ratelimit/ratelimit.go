// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

// Package ratelimit counts failures per key inside a fixed window. It backs
// login throttling and has in-memory and Redis implementations.
package ratelimit

import (
	"context"
	"time"
)

// DefaultWindow is used when a limiter is created with a zero window.
const DefaultWindow = 15 * time.Minute

// Limiter counts failures per key. A key's count returns to zero once its
// window, started by the first failure, has elapsed.
type Limiter interface {
	Failures(ctx context.Context, key string) (int, error)
	RecordFailure(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
	Close() error
}
