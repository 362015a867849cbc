// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizdesk/internal/platform/sec"
	"github.com/taibuivan/bizdesk/internal/users/identity"
	"github.com/taibuivan/bizdesk/pkg/pointer"
)

/*
TestMemoryStore_CreateAndFind covers creation defaults and both lookups.
*/
func TestMemoryStore_CreateAndFind(t *testing.T) {
	store := identity.NewMemoryStore()
	ctx := context.Background()

	created := seedUser(t, store)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.False(t, created.IsVerified)
	assert.Equal(t, 0, created.FailedAttempts)

	byID, err := store.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, byID.Email)

	byEmail, err := store.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = store.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, identity.ErrNotFound)
	_, err = store.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

/*
TestMemoryStore_DuplicateEmail rejects a second account under the same email.
*/
func TestMemoryStore_DuplicateEmail(t *testing.T) {
	store := identity.NewMemoryStore()
	seedUser(t, store)

	_, err := store.Create(context.Background(), identity.NewUser{Email: "jane@example.com", Role: sec.RoleAdmin})
	assert.ErrorIs(t, err, identity.ErrEmailTaken)
}

/*
TestMemoryStore_UpdatePartial applies only the fields present on the patch.
*/
func TestMemoryStore_UpdatePartial(t *testing.T) {
	store := identity.NewMemoryStore()
	ctx := context.Background()
	user := seedUser(t, store)

	lockUntil := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	updated, err := store.Update(ctx, user.ID, identity.Patch{
		FailedAttempts: pointer.To(2),
		LockUntil:      &lockUntil,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.FailedAttempts)
	assert.Equal(t, lockUntil, *updated.LockUntil)
	assert.Equal(t, "hash", updated.PasswordHash)
	assert.Equal(t, sec.RoleEmployee, updated.Role)

	cleared, err := store.Update(ctx, user.ID, identity.Patch{ClearLockUntil: true, IsActive: pointer.To(false)})
	require.NoError(t, err)
	assert.Nil(t, cleared.LockUntil)
	assert.False(t, cleared.IsActive)
	assert.Equal(t, 2, cleared.FailedAttempts)

	_, err = store.Update(ctx, "missing", identity.Patch{})
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

/*
TestMemoryStore_ReturnsCopies ensures callers cannot mutate stored state through returned pointers.
*/
func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := identity.NewMemoryStore()
	user := seedUser(t, store)

	user.Role = sec.RoleAdmin
	user.FailedAttempts = 99

	stored, err := store.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, sec.RoleEmployee, stored.Role)
	assert.Equal(t, 0, stored.FailedAttempts)
}

/*
TestPatch_IsEmpty distinguishes no-op patches.
*/
func TestPatch_IsEmpty(t *testing.T) {
	assert.True(t, identity.Patch{}.IsEmpty())
	assert.False(t, identity.Patch{ClearLockUntil: true}.IsEmpty())
	assert.False(t, identity.Patch{IsVerified: pointer.To(true)}.IsEmpty())
}
