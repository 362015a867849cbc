// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/bizdesk/pkg/uuid"
)

// MemoryStore is a process-local [Repository] used when no database is
// configured and as the fake in tests. Returned users are copies.
type MemoryStore struct {
	mutex   sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory repository.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// FindByID returns a copy of the account with the given ID.
func (store *MemoryStore) FindByID(_ context.Context, id string) (*User, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	user, ok := store.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return user.Clone(), nil
}

// FindByEmail returns a copy of the account registered under email.
func (store *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	id, ok := store.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return store.byID[id].Clone(), nil
}

// Create stores a new active account.
func (store *MemoryStore) Create(_ context.Context, input NewUser) (*User, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if _, exists := store.byEmail[input.Email]; exists {
		return nil, ErrEmailTaken
	}

	now := store.now().UTC()
	user := &User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
		DisplayName:  input.DisplayName,
		Role:         input.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	store.byID[user.ID] = user
	store.byEmail[user.Email] = user.ID

	return user.Clone(), nil
}

// Update applies patch to the stored account.
func (store *MemoryStore) Update(_ context.Context, id string, patch Patch) (*User, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	user, ok := store.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(user)
	user.UpdatedAt = store.now().UTC()

	return user.Clone(), nil
}
