// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/bizdesk/internal/audit"
	"github.com/taibuivan/bizdesk/internal/platform/apperr"
	"github.com/taibuivan/bizdesk/internal/platform/ctxutil"
	"github.com/taibuivan/bizdesk/internal/platform/validate"
	"github.com/taibuivan/bizdesk/internal/users/identity"
	"github.com/taibuivan/bizdesk/pkg/pointer"
)

// # Service Layer

// Service orchestrates the operator-facing account operations.
//
// Authorization happens in the route gates; the service trusts its caller.
type Service struct {
	users   identity.Repository
	lockout *identity.Lockout
	audit   *audit.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(users identity.Repository, lockout *identity.Lockout, auditLogger *audit.Logger) *Service {
	return &Service{users: users, lockout: lockout, audit: auditLogger}
}

// # Profile Management

/*
Profile retrieves the identity of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *identity.User: The hydrated user profile
  - error: NotFound or execution failures
*/
func (service *Service) Profile(context context.Context, userID string) (*identity.User, error) {
	return service.find(context, userID)
}

/*
UpdateProfile applies a partial set of changes to a user's profile.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *identity.User: The updated user profile
  - error: ValidationError, NotFound or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*identity.User, error) {
	if input.DisplayName != nil {
		if err := (&validate.Validator{}).MaxLen(FieldDisplayName, *input.DisplayName, 100).Err(); err != nil {
			return nil, err
		}
	}

	user, err := service.users.Update(context, userID, identity.Patch{DisplayName: input.DisplayName})
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "user_profile_updated", slog.String("user_id", userID))
	return user, nil
}

// # Lockout Administration

/*
LockoutStatus reports the failed attempt counter and lock deadline of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *LockoutStatus: Current state against the active policy
  - error: NotFound or execution failures
*/
func (service *Service) LockoutStatus(context context.Context, userID string) (*LockoutStatus, error) {
	user, err := service.find(context, userID)
	if err != nil {
		return nil, err
	}
	return service.statusOf(user), nil
}

/*
Unlock clears the lockout state of a user.

Parameters:
  - context: context.Context
  - actor: *identity.User (the operator)
  - userID: string
  - meta: audit.RequestMeta

Returns:
  - *LockoutStatus: The state after the reset
  - error: NotFound or execution failures
*/
func (service *Service) Unlock(context context.Context, actor *identity.User, userID string, meta audit.RequestMeta) (*LockoutStatus, error) {
	user, err := service.find(context, userID)
	if err != nil {
		return nil, err
	}

	user, err = service.lockout.Reset(context, user)
	if err != nil {
		return nil, err
	}

	service.audit.LogAuthEvent(context, audit.EventAccountUnlocked,
		&audit.Actor{ID: actor.ID, Email: actor.Email, Role: actor.Role},
		meta,
		map[string]any{"target_id": user.ID},
	)
	return service.statusOf(user), nil
}

/*
Deactivate disables an account so the gate rejects its tokens.

Description: Operators cannot deactivate themselves. Deactivating an already
inactive account is a no-op.

Parameters:
  - context: context.Context
  - actor: *identity.User (the operator)
  - userID: string
  - meta: audit.RequestMeta

Returns:
  - *identity.User: The deactivated account
  - error: BadRequest, NotFound or storage failures
*/
func (service *Service) Deactivate(context context.Context, actor *identity.User, userID string, meta audit.RequestMeta) (*identity.User, error) {
	if actor.ID == userID {
		return nil, apperr.BadRequest("You cannot deactivate your own account")
	}

	user, err := service.find(context, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return user, nil
	}

	user, err = service.users.Update(context, userID, identity.Patch{IsActive: pointer.To(false)})
	if err != nil {
		return nil, fmt.Errorf("account_service_deactivate_failed: %w", err)
	}

	ctxutil.GetLogger(context).WarnContext(context, "user_account_deactivated", slog.String("user_id", userID))
	service.audit.LogAuthEvent(context, audit.EventAccountDeactivated,
		&audit.Actor{ID: actor.ID, Email: actor.Email, Role: actor.Role},
		meta,
		map[string]any{"target_id": user.ID, "target_email": user.Email},
	)
	return user, nil
}

// # Internals

func (service *Service) find(context context.Context, userID string) (*identity.User, error) {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("account_service_lookup_failed: %w", err)
	}
	return user, nil
}

func (service *Service) statusOf(user *identity.User) *LockoutStatus {
	status := &LockoutStatus{
		UserID:         user.ID,
		FailedAttempts: user.FailedAttempts,
		Threshold:      service.lockout.Policy().Threshold,
		Locked:         service.lockout.IsLocked(user),
	}
	if status.Locked {
		status.LockedUntil = user.LockUntil
		status.RemainingSeconds = int(service.lockout.RemainingLock(user).Seconds())
	}
	return status
}
