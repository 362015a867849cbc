// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/bizdesk/internal/platform/apperr"
	"github.com/taibuivan/bizdesk/pkg/pointer"
)

// # Lockout Policy

const (
	// DefaultLockoutThreshold is the number of consecutive failures that locks an account.
	DefaultLockoutThreshold = 5

	// DefaultLockoutDuration is how long a locked account stays locked.
	DefaultLockoutDuration = 30 * time.Minute
)

// LockoutPolicy configures the [Lockout] machine.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy returns the policy of 5 failures and a 30 minute lock.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: DefaultLockoutThreshold, Duration: DefaultLockoutDuration}
}

// # Lockout State Machine

// Lockout tracks consecutive failed logins per account.
//
// States: UNLOCKED(attempts < threshold, no lock), LOCKED(lock in the future)
// and an elapsed lock, which behaves as UNLOCKED until the next failure resets it.
//
// Transitions read the user passed in and write the result immediately,
// so two concurrent failures for the same account can both read the same
// counter and lose one increment.
type Lockout struct {
	users  Repository
	policy LockoutPolicy
	now    func() time.Time
}

// LockoutOption customises a [Lockout].
type LockoutOption func(*Lockout)

// WithLockoutClock overrides the clock used to evaluate and set lock deadlines.
func WithLockoutClock(now func() time.Time) LockoutOption {
	return func(lockout *Lockout) {
		lockout.now = now
	}
}

// NewLockout creates the machine. Non-positive policy values fall back to the defaults.
func NewLockout(users Repository, policy LockoutPolicy, options ...LockoutOption) *Lockout {
	if policy.Threshold <= 0 {
		policy.Threshold = DefaultLockoutThreshold
	}
	if policy.Duration <= 0 {
		policy.Duration = DefaultLockoutDuration
	}

	lockout := &Lockout{users: users, policy: policy, now: time.Now}
	for _, option := range options {
		option(lockout)
	}
	return lockout
}

// Policy returns the effective policy.
func (lockout *Lockout) Policy() LockoutPolicy { return lockout.policy }

// IsLocked reports whether the user is locked at the current instant.
func (lockout *Lockout) IsLocked(user *User) bool {
	return user.LockUntil != nil && user.LockUntil.After(lockout.now())
}

// RemainingLock returns how long the user stays locked, or zero.
func (lockout *Lockout) RemainingLock(user *User) time.Duration {
	if !lockout.IsLocked(user) {
		return 0
	}
	return user.LockUntil.Sub(lockout.now())
}

/*
RecordFailure registers a failed login for user and persists the outcome.

Description:
  - An elapsed lock restarts the count at 1 and clears the deadline.
  - An active lock freezes the counter; nothing is written.
  - Otherwise the counter increments and reaching the threshold sets
    the lock deadline to now + duration.

Parameters:
  - context: context.Context
  - user: *User (state as last read)

Returns:
  - *User: The persisted state
  - bool: Whether this failure locked the account
  - error: apperr.Internal if the store rejects the write
*/
func (lockout *Lockout) RecordFailure(context context.Context, user *User) (*User, bool, error) {
	now := lockout.now()

	var patch Patch
	locked := false

	switch {
	case user.LockUntil != nil && !user.LockUntil.After(now):
		patch = Patch{FailedAttempts: pointer.To(1), ClearLockUntil: true}
	case user.LockUntil != nil:
		return user, false, nil
	default:
		attempts := user.FailedAttempts + 1
		patch = Patch{FailedAttempts: pointer.To(attempts)}
		if attempts >= lockout.policy.Threshold {
			patch.LockUntil = pointer.To(now.Add(lockout.policy.Duration))
			locked = true
		}
	}

	updated, err := lockout.users.Update(context, user.ID, patch)
	if err != nil {
		return nil, false, apperr.Internal(fmt.Errorf("lockout_record_failure_failed: %w", err))
	}
	return updated, locked, nil
}

/*
RecordSuccess resets the counter, clears any lock and stamps the login time.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - *User: The persisted state
  - error: apperr.Internal if the store rejects the write
*/
func (lockout *Lockout) RecordSuccess(context context.Context, user *User) (*User, error) {
	patch := Patch{
		FailedAttempts: pointer.To(0),
		ClearLockUntil: true,
		LastLoginAt:    pointer.To(lockout.now().UTC()),
	}

	updated, err := lockout.users.Update(context, user.ID, patch)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("lockout_record_success_failed: %w", err))
	}
	return updated, nil
}

/*
Reset clears the counter and any lock without stamping a login.

Used when an administrator unlocks an account by hand.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - *User: The persisted state
  - error: apperr.Internal if the store rejects the write
*/
func (lockout *Lockout) Reset(context context.Context, user *User) (*User, error) {
	patch := Patch{FailedAttempts: pointer.To(0), ClearLockUntil: true}

	updated, err := lockout.users.Update(context, user.ID, patch)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("lockout_reset_failed: %w", err))
	}
	return updated, nil
}
