// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/bizdesk/internal/platform/ctxkey"
	"github.com/taibuivan/bizdesk/internal/users/identity"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithUser returns a new context carrying the authenticated identity and its raw token.
func WithUser(ctx context.Context, user *identity.User, accessToken string) context.Context {
	ctx = context.WithValue(ctx, ctxkey.KeyUser, user)
	return context.WithValue(ctx, ctxkey.KeyAccessToken, accessToken)
}

// GetUser retrieves the authenticated [*identity.User], or nil on anonymous requests.
func GetUser(ctx context.Context) *identity.User {
	user, ok := ctx.Value(ctxkey.KeyUser).(*identity.User)
	if !ok {
		return nil
	}
	return user
}

// GetAccessToken retrieves the bearer credential the request was authenticated with.
func GetAccessToken(ctx context.Context) string {
	token, _ := ctx.Value(ctxkey.KeyAccessToken).(string)
	return token
}

// # Diagnostics

// WithDebug marks whether error causes may be included in responses.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, ctxkey.KeyDebug, enabled)
}

// IsDebug reports whether error causes may be included in responses.
func IsDebug(ctx context.Context) bool {
	enabled, _ := ctx.Value(ctxkey.KeyDebug).(bool)
	return enabled
}
