// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity owns the account record of every staff member and the
lockout state machine that guards it.

# Architecture

The store contract ([Repository]) is defined here together with two
implementations: PostgreSQL for deployments and an in-memory map for
development and tests. The [Lockout] machine is the only writer of the
failed-attempt counter and the lock deadline.
*/
package identity

import (
	"errors"
	"time"

	"github.com/taibuivan/bizdesk/internal/platform/sec"
)

// # Errors

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("identity: user not found")

	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("identity: email already registered")
)

// # Domain Entities

// User is the persisted identity of a staff member.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName    string     `json:"display_name"`
	Role           sec.Role   `json:"role"`
	IsActive       bool       `json:"is_active"`
	IsVerified     bool       `json:"is_verified"`
	FailedAttempts int        `json:"-"`
	LockUntil      *time.Time `json:"-"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Subject returns the token subject for the user.
func (user *User) Subject() sec.Subject {
	return sec.Subject{ID: user.ID, Email: user.Email, Role: user.Role}
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (user *User) Clone() *User {
	clone := *user
	if user.LockUntil != nil {
		lockUntil := *user.LockUntil
		clone.LockUntil = &lockUntil
	}
	if user.LastLoginAt != nil {
		lastLogin := *user.LastLoginAt
		clone.LastLoginAt = &lastLogin
	}
	return &clone
}

// NewUser describes an account to create. PasswordHash must already be hashed.
type NewUser struct {
	Email        string
	PasswordHash string
	DisplayName  string
	Role         sec.Role
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	PasswordHash   *string
	DisplayName    *string
	Role           *sec.Role
	IsActive       *bool
	IsVerified     *bool
	FailedAttempts *int
	LockUntil      *time.Time
	ClearLockUntil bool
	LastLoginAt    *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (patch Patch) IsEmpty() bool {
	return patch.PasswordHash == nil &&
		patch.DisplayName == nil &&
		patch.Role == nil &&
		patch.IsActive == nil &&
		patch.IsVerified == nil &&
		patch.FailedAttempts == nil &&
		patch.LockUntil == nil &&
		!patch.ClearLockUntil &&
		patch.LastLoginAt == nil
}

// Apply writes the patch onto user in place.
func (patch Patch) Apply(user *User) {
	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	if patch.DisplayName != nil {
		user.DisplayName = *patch.DisplayName
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	if patch.IsVerified != nil {
		user.IsVerified = *patch.IsVerified
	}
	if patch.FailedAttempts != nil {
		user.FailedAttempts = *patch.FailedAttempts
	}
	if patch.ClearLockUntil {
		user.LockUntil = nil
	}
	if patch.LockUntil != nil {
		lockUntil := *patch.LockUntil
		user.LockUntil = &lockUntil
	}
	if patch.LastLoginAt != nil {
		lastLogin := *patch.LastLoginAt
		user.LastLoginAt = &lastLogin
	}
}
