// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines the typed keys under which the middleware chain
// stores per-request values. Read them through [ctxutil], not directly.
package ctxkey

// key is unexported so no other package can mint a colliding value.
type key int

const (
	// KeyRequestID holds the X-Request-ID correlation value.
	KeyRequestID key = iota

	// KeyLogger holds the request-scoped [*log/slog.Logger].
	KeyLogger

	// KeyUser holds the account resolved by the authentication gate.
	KeyUser

	// KeyAccessToken holds the raw bearer credential the account was resolved from.
	KeyAccessToken

	// KeyDebug flags that error causes may be echoed to the client.
	KeyDebug
)
