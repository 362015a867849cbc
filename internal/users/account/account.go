// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import "time"

// # Account Views

// LockoutStatus describes the lockout state of an account for operators.
type LockoutStatus struct {
	UserID           string     `json:"user_id"`
	FailedAttempts   int        `json:"failed_attempts"`
	Threshold        int        `json:"threshold"`
	Locked           bool       `json:"locked"`
	LockedUntil      *time.Time `json:"locked_until,omitempty"`
	RemainingSeconds int        `json:"remaining_seconds"`
}

// UpdateProfileInput defines the mutable subset of user profile fields.
type UpdateProfileInput struct {
	DisplayName *string
}

// # Field Names

const (
	FieldDisplayName = "display_name"
	FieldUserID      = "userID"
)
