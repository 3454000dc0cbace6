// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// DefaultRedisPrefix namespaces limiter keys.
const DefaultRedisPrefix = "reelvault:ratelimit:"

// RedisOptions configures a Redis limiter.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Window   time.Duration
	Prefix   string
	// Timeout bounds each Redis round trip. Zero means 250ms.
	Timeout time.Duration
}

// Redis is a Limiter shared between replicas through Redis. Each window is
// a key written with INCR and EXPIRE NX in one MULTI/EXEC, which needs
// Redis 7 or newer. Redis failures are logged and treated as a zero count so
// an outage never locks users out.
type Redis struct {
	client  redis.Cmdable
	closer  func() error
	logger  *slog.Logger
	prefix  string
	window  time.Duration
	timeout time.Duration
}

// DialRedis connects to Redis and checks it answers.
func DialRedis(ctx context.Context, opts RedisOptions, logger *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("RATELIMIT_REDIS_UNAVAILABLE").
			With("addr", opts.Addr).
			Wrap(err)
	}

	r := NewRedis(client, opts, logger)
	r.closer = client.Close
	return r, nil
}

// NewRedis wraps an existing client. The caller keeps ownership of client.
func NewRedis(client redis.Cmdable, opts RedisOptions, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultRedisPrefix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 250 * time.Millisecond
	}
	return &Redis{
		client:  client,
		closer:  func() error { return nil },
		logger:  logger,
		prefix:  opts.Prefix,
		window:  opts.Window,
		timeout: opts.Timeout,
	}
}

// Failures reads key's count.
func (r *Redis) Failures(ctx context.Context, key string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.client.Get(ctx, r.prefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		r.logRedisError(ctx, "get", key, err)
		return 0, nil
	}
	return n, nil
}

// RecordFailure increments key's count and, in the same transaction, sets
// the window TTL when the key has none. A TTL lost to an earlier error is
// restored by the next failure.
func (r *Redis) RecordFailure(ctx context.Context, key string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	redisKey := r.prefix + key
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, r.window)
		return nil
	})
	if incr == nil || incr.Err() != nil {
		r.logRedisError(ctx, "incr", key, err)
		return 0, nil
	}
	if err != nil {
		r.logRedisError(ctx, "expire", key, err)
	}
	return int(incr.Val()), nil
}

// Reset deletes key.
func (r *Redis) Reset(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.logRedisError(ctx, "del", key, err)
	}
	return nil
}

// Close releases the client when it was opened by DialRedis.
func (r *Redis) Close() error {
	if err := r.closer(); err != nil {
		return oops.Code("RATELIMIT_REDIS_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

func (r *Redis) logRedisError(ctx context.Context, op, key string, err error) {
	r.logger.ErrorContext(ctx, "redis rate limiter error", "op", op, "key", key, "error", err)
}

var _ Limiter = (*Redis)(nil)
