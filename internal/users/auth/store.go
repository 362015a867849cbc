// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"time"
)

// ErrTokenNotFound is returned when a single-use token is absent or expired.
var ErrTokenNotFound = errors.New("auth: token not found")

// # Volatile Data Access

// TokenStore defines the contract for storing single-use tokens that map to an account.
//
// One store holds one token kind; reset and verification tokens use separate stores.
type TokenStore interface {

	/*
		Set stores a token associated with a userID for a limited duration.

		Parameters:
		  - context: context.Context
		  - token: string
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, userID string, ttl time.Duration) error

	/*
		Get retrieves the userID associated with a given token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: UserID
		  - error: [ErrTokenNotFound] or retrieval failures
	*/
	Get(context context.Context, token string) (string, error)

	/*
		Delete removes a token after successful use.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}
