// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

// Package errutil classifies oops errors and provides logging and test helpers for them.
package errutil

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
// Internal errors are logged at ERROR; classified client-side failures
// (validation, unauthorized, and so on) at WARN.
func LogError(logger *slog.Logger, msg string, err error) {
	level := slog.LevelError
	kind := KindOf(err)
	if kind != KindInternal && kind != "" {
		level = slog.LevelWarn
	}

	attrs := []any{"error", err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if domain := oopsErr.Domain(); domain != "" {
			attrs = append(attrs, "domain", domain)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
	}
	attrs = append(attrs, "kind", string(kind))

	logger.Log(context.Background(), level, msg, attrs...)
}
