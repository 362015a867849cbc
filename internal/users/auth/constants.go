// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// VerificationTokenTTL is the duration an email verification token remains valid.
	// Long-lived (24 hours) as users might not check email immediately.
	VerificationTokenTTL = 24 * time.Hour

	// SingleUseTokenLength is the byte length of reset and verification tokens.
	SingleUseTokenLength = 32
)

// # Client Messages

const (
	MessageInvalidCredentials   = "Invalid credentials"
	MessageRefreshTokenRequired = "Refresh token is required"
	MessageRefreshTokenInvalid  = "Invalid or expired refresh token"
	MessageCurrentPasswordWrong = "Current password is incorrect"
	MessageResetTokenInvalid    = "Reset token is invalid or expired"
	MessageVerifyTokenInvalid   = "Verification token is invalid or expired"
	MessageEmailTaken           = "Email is already registered"
)

// # Payload Fields

const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldToken           = "token"
	FieldRefreshToken    = "refresh_token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldMessage         = "message"
)
