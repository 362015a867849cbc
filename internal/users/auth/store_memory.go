// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sync"
	"time"
)

type memoryToken struct {
	userID    string
	expiresAt time.Time
}

// MemoryTokenStore is a process-local [TokenStore] used when Redis is not configured.
//
// Expired tokens are dropped lazily on lookup.
type MemoryTokenStore struct {
	mutex  sync.Mutex
	tokens map[string]memoryToken
	now    func() time.Time
}

// NewMemoryTokenStore creates an empty store. A nil now uses [time.Now].
func NewMemoryTokenStore(now func() time.Time) *MemoryTokenStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryTokenStore{tokens: make(map[string]memoryToken), now: now}
}

// Set stores token for ttl.
func (store *MemoryTokenStore) Set(_ context.Context, token string, userID string, ttl time.Duration) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	store.tokens[token] = memoryToken{userID: userID, expiresAt: store.now().Add(ttl)}
	return nil
}

// Get returns the owner of token unless it expired.
func (store *MemoryTokenStore) Get(_ context.Context, token string) (string, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	entry, ok := store.tokens[token]
	if !ok {
		return "", ErrTokenNotFound
	}
	if !store.now().Before(entry.expiresAt) {
		delete(store.tokens, token)
		return "", ErrTokenNotFound
	}
	return entry.userID, nil
}

// Delete removes token.
func (store *MemoryTokenStore) Delete(_ context.Context, token string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	delete(store.tokens, token)
	return nil
}
