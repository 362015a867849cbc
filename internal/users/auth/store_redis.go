// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/bizdesk/internal/platform/constants"
)

// RedisTokenStore implements [TokenStore] with Redis keys that expire on their own.
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenStore creates a store whose keys all start with prefix.
func NewRedisTokenStore(client *redis.Client, prefix string) *RedisTokenStore {
	return &RedisTokenStore{client: client, prefix: prefix}
}

// NewResetTokenStore creates the Redis-backed store for password reset tokens.
func NewResetTokenStore(client *redis.Client) *RedisTokenStore {
	return NewRedisTokenStore(client, constants.RedisPrefixResetToken)
}

// NewVerificationTokenStore creates the Redis-backed store for email verification tokens.
func NewVerificationTokenStore(client *redis.Client) *RedisTokenStore {
	return NewRedisTokenStore(client, constants.RedisPrefixVerifyToken)
}

/*
Set stores a token with its associated userID and TTL.

Parameters:
  - context: context.Context
  - token: string
  - userID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (store *RedisTokenStore) Set(context context.Context, token string, userID string, ttl time.Duration) error {
	if err := store.client.Set(context, store.prefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_token_set_failed: %w", err)
	}
	return nil
}

/*
Get retrieves the userID for a given token.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - string: Original UserID
  - error: [ErrTokenNotFound] or connectivity errors
*/
func (store *RedisTokenStore) Get(context context.Context, token string) (string, error) {
	userID, err := store.client.Get(context, store.prefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("redis_token_get_failed: %w", err)
	}
	return userID, nil
}

// Delete removes the token from Redis.
func (store *RedisTokenStore) Delete(context context.Context, token string) error {
	if err := store.client.Del(context, store.prefix+token).Err(); err != nil {
		return fmt.Errorf("redis_token_delete_failed: %w", err)
	}
	return nil
}
