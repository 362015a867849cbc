// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the credential flows of the identity system.

It handles registration, login with account lockout, stateless token refresh
and the password change, reset and email verification flows.

Architecture:

  - Service: Orchestrates business logic over the identity store and lockout machine.
  - TokenStore: Single-use reset and verification tokens (Redis or in-memory).
  - Security: bcrypt password hashes and HS256-signed JWTs from [sec].

Every security-relevant outcome is written to the audit log.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/bizdesk/internal/audit"
	"github.com/taibuivan/bizdesk/internal/platform/apperr"
	"github.com/taibuivan/bizdesk/internal/platform/ctxutil"
	"github.com/taibuivan/bizdesk/internal/platform/metrics"
	"github.com/taibuivan/bizdesk/internal/platform/middleware"
	"github.com/taibuivan/bizdesk/internal/platform/sec"
	"github.com/taibuivan/bizdesk/internal/platform/validate"
	"github.com/taibuivan/bizdesk/internal/users/identity"
	"github.com/taibuivan/bizdesk/pkg/normalize"
	"github.com/taibuivan/bizdesk/pkg/pointer"
)

// # Contracts & Types

// TokenIssuer issues and verifies the signed credentials handed to clients.
type TokenIssuer interface {
	IssueAccess(subject sec.Subject) (string, error)
	IssueRefresh(subject sec.Subject) (string, error)
	VerifyRefresh(token string) (*sec.RefreshClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// Dependencies groups the collaborators of [Service].
type Dependencies struct {
	Users              identity.Repository
	Lockout            *identity.Lockout
	Hasher             *sec.PasswordHasher
	Tokens             TokenIssuer
	ResetTokens        TokenStore
	VerificationTokens TokenStore
	Audit              *audit.Logger
	Metrics            *metrics.Metrics
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	users              identity.Repository
	lockout            *identity.Lockout
	hasher             *sec.PasswordHasher
	tokens             TokenIssuer
	resetTokens        TokenStore
	verificationTokens TokenStore
	audit              *audit.Logger
	metrics            *metrics.Metrics
	now                func() time.Time
}

// ServiceOption customises a [Service].
type ServiceOption func(*Service)

// WithClock overrides the clock used to stamp token expiry times.
func WithClock(now func() time.Time) ServiceOption {
	return func(service *Service) {
		service.now = now
	}
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(deps Dependencies, options ...ServiceOption) *Service {
	service := &Service{
		users:              deps.Users,
		lockout:            deps.Lockout,
		hasher:             deps.Hasher,
		tokens:             deps.Tokens,
		resetTokens:        deps.ResetTokens,
		verificationTokens: deps.VerificationTokens,
		audit:              deps.Audit,
		metrics:            deps.Metrics,
		now:                time.Now,
	}
	for _, option := range options {
		option(service)
	}
	return service
}

// Session is the credential pair returned by a successful login or refresh.
type Session struct {
	AccessToken           string         `json:"access_token"`
	AccessTokenExpiresAt  time.Time      `json:"access_token_expires_at"`
	RefreshToken          string         `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time      `json:"refresh_token_expires_at"`
	User                  *identity.User `json:"user"`
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// Registration is the outcome of [Service.Register].
type Registration struct {
	User *identity.User
	// VerificationToken is delivered to the user out of band.
	VerificationToken string
}

/*
Register validates, hashes, and persists a brand new employee account.

Description: Normalizes the email, enforces the password policy and stores an
email verification token for the new account.

Parameters:
  - context: context.Context
  - input: RegisterInput
  - meta: audit.RequestMeta

Returns:
  - *Registration: Created entity and its verification token
  - error: ValidationError, Conflict (if the email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput, meta audit.RequestMeta) (*Registration, error) {
	email := normalize.Email(input.Email)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).
		Email(FieldEmail, email).
		MaxLen(FieldDisplayName, input.DisplayName, 100).
		PasswordStrength(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Prevent storing plain-text passwords.
	hashedPassword, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user, err := service.users.Create(context, identity.NewUser{
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         sec.RoleEmployee,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, apperr.Conflict(MessageEmailTaken)
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	token, err := service.issueSingleUse(context, service.verificationTokens, user.ID, VerificationTokenTTL)
	if err != nil {
		// The account exists; verification can be requested again later.
		ctxutil.GetLogger(context).WarnContext(context, "verification_token_store_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	service.audit.LogAuthEvent(context, audit.EventUserRegistered, actorOf(user), meta, nil)
	return &Registration{User: user, VerificationToken: token}, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login validates user credentials and issues security tokens.

# Flow
 1. Look up the normalized email; unknown accounts and lookup failures are both 401.
 2. Reject deactivated and locked accounts.
 3. Verify the password; a mismatch records a failure and may lock the account.
 4. On success reset the lockout state and issue an access and refresh token.

Parameters:
  - context: context.Context
  - input: LoginInput
  - meta: audit.RequestMeta

Returns:
  - *Session: Transport-ready credentials
  - error: Unauthorized, or Internal when the lockout state cannot be persisted
*/
func (service *Service) Login(context context.Context, input LoginInput, meta audit.RequestMeta) (*Session, error) {
	email := normalize.Email(input.Email)
	logger := ctxutil.GetLogger(context)

	// ── 1. Account Lookup ─────────────────────────────────────────────────
	user, err := service.users.FindByEmail(context, email)
	if err != nil {
		outcome := metrics.LoginUnknownUser
		if !errors.Is(err, identity.ErrNotFound) {
			outcome = metrics.LoginError
			logger.ErrorContext(context, "login_lookup_failed", slog.Any("error", err))
		}
		service.loginFailed(context, nil, meta, outcome, map[string]any{"email": email})
		return nil, apperr.Unauthorized(MessageInvalidCredentials)
	}

	// ── 2. Account State ──────────────────────────────────────────────────
	if !user.IsActive {
		service.loginFailed(context, user, meta, metrics.LoginInactive, nil)
		return nil, apperr.Unauthorized(middleware.MessageAccountDeactivated)
	}
	if service.lockout.IsLocked(user) {
		locked := apperr.Locked(middleware.MessageAccountLocked, service.lockout.RemainingLock(user))
		service.loginFailed(context, user, meta, metrics.LoginLocked, map[string]any{
			"retry_after_seconds": locked.RetryAfterSeconds(),
		})
		return nil, locked
	}

	// ── 3. Password Verification ──────────────────────────────────────────
	if !service.hasher.Verify(input.Password, user.PasswordHash) {
		updated, lockedNow, err := service.lockout.RecordFailure(context, user)
		if err != nil {
			service.metrics.LoginAttempt(metrics.LoginError)
			return nil, err
		}

		service.loginFailed(context, updated, meta, metrics.LoginBadPassword, map[string]any{
			"failed_attempts": updated.FailedAttempts,
		})
		if lockedNow {
			service.metrics.AccountLocked()
			logger.WarnContext(context, "account_locked",
				slog.String("user_id", updated.ID),
				slog.Int("failed_attempts", updated.FailedAttempts),
			)
			service.audit.LogAuthEvent(context, audit.EventAccountLocked, actorOf(updated), meta, map[string]any{
				"failed_attempts": updated.FailedAttempts,
				"locked_until":    pointer.Val(updated.LockUntil),
			})
		}
		return nil, apperr.Unauthorized(MessageInvalidCredentials)
	}

	// ── 4. Session Issuance ───────────────────────────────────────────────
	user, err = service.lockout.RecordSuccess(context, user)
	if err != nil {
		service.metrics.LoginAttempt(metrics.LoginError)
		return nil, err
	}

	session, err := service.issueSession(user)
	if err != nil {
		service.metrics.LoginAttempt(metrics.LoginError)
		return nil, err
	}

	service.metrics.LoginAttempt(metrics.LoginSucceeded)
	service.audit.LogAuthEvent(context, audit.EventLoginSuccess, actorOf(user), meta, nil)
	return session, nil
}

// loginFailed records the metric and audit entry of a rejected login.
func (service *Service) loginFailed(context context.Context, user *identity.User, meta audit.RequestMeta, outcome string, fields map[string]any) {
	service.metrics.LoginAttempt(outcome)

	if fields == nil {
		fields = map[string]any{}
	}
	fields["reason"] = outcome

	var actor *audit.Actor
	if user != nil {
		actor = actorOf(user)
	}
	service.audit.LogAuthEvent(context, audit.EventLoginFailed, actor, meta, fields)
}

/*
Logout records the end of a session.

Tokens are stateless, so the client discards them; nothing is revoked server side.

Parameters:
  - context: context.Context
  - user: *identity.User
  - meta: audit.RequestMeta
*/
func (service *Service) Logout(context context.Context, user *identity.User, meta audit.RequestMeta) {
	service.audit.LogAuthEvent(context, audit.EventLogout, actorOf(user), meta, nil)
}

// # Session Management

/*
Refresh exchanges a valid refresh token for a new credential pair.

Description: The account is reloaded so deactivation and locks take effect on
the next refresh, not only on the next login.

Parameters:
  - context: context.Context
  - refreshToken: string
  - meta: audit.RequestMeta

Returns:
  - *Session: New credentials
  - error: BadRequest, Unauthorized or storage failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string, meta audit.RequestMeta) (*Session, error) {
	if refreshToken == "" {
		return nil, apperr.BadRequest(MessageRefreshTokenRequired)
	}

	claims, err := service.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, service.refreshFailed(context, nil, meta, "token_invalid")
	}

	user, err := service.users.FindByID(context, claims.ID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, service.refreshFailed(context, nil, meta, "user_not_found")
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}
	if !user.IsActive {
		return nil, service.refreshFailed(context, user, meta, "account_inactive")
	}
	if service.lockout.IsLocked(user) {
		return nil, service.refreshFailed(context, user, meta, "account_locked")
	}

	session, err := service.issueSession(user)
	if err != nil {
		return nil, err
	}

	service.metrics.TokenRefresh(metrics.RefreshSucceeded)
	service.audit.LogAuthEvent(context, audit.EventTokenRefreshed, actorOf(user), meta, nil)
	return session, nil
}

func (service *Service) refreshFailed(context context.Context, user *identity.User, meta audit.RequestMeta, reason string) error {
	service.metrics.TokenRefresh(metrics.RefreshRejected)

	var actor *audit.Actor
	if user != nil {
		actor = actorOf(user)
	}
	service.audit.LogAuthEvent(context, audit.EventTokenRefreshFailed, actor, meta, map[string]any{"reason": reason})
	return apperr.Unauthorized(MessageRefreshTokenInvalid)
}

func (service *Service) issueSession(user *identity.User) (*Session, error) {
	now := service.now()

	accessToken, err := service.tokens.IssueAccess(user.Subject())
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}
	refreshToken, err := service.tokens.IssueRefresh(user.Subject())
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &Session{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  now.Add(service.tokens.AccessTTL()),
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: now.Add(service.tokens.RefreshTTL()),
		User:                  user,
	}, nil
}

// # Password Management

/*
ChangePassword allows an authenticated user to update their credentials.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string
  - meta: audit.RequestMeta

Returns:
  - error: Unauthorized, ValidationError or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string, meta audit.RequestMeta) error {
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return apperr.NotFound("User")
		}
		return fmt.Errorf("auth_service_change_password_lookup_failed: %w", err)
	}

	// Verify the current password before allowing change
	if !service.hasher.Verify(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized(MessageCurrentPasswordWrong)
	}

	if err := (&validate.Validator{}).PasswordStrength(FieldNewPassword, newPassword).Err(); err != nil {
		return err
	}

	if err := service.setPassword(context, user.ID, newPassword); err != nil {
		return err
	}

	service.audit.LogAuthEvent(context, audit.EventPasswordChanged, actorOf(user), meta, nil)
	return nil
}

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Unknown emails return silently so the endpoint cannot be used to
enumerate accounts.

Parameters:
  - context: context.Context
  - email: string
  - meta: audit.RequestMeta

Returns:
  - string: Reset token, empty when no account matched
  - error: Generation or storage errors
*/
func (service *Service) RequestPasswordReset(context context.Context, email string, meta audit.RequestMeta) (string, error) {
	user, err := service.users.FindByEmail(context, normalize.Email(email))
	if err != nil {
		if !errors.Is(err, identity.ErrNotFound) {
			ctxutil.GetLogger(context).ErrorContext(context, "password_reset_lookup_failed", slog.Any("error", err))
		}
		return "", nil
	}
	if !user.IsActive {
		return "", nil
	}

	token, err := service.issueSingleUse(context, service.resetTokens, user.ID, ResetTokenTTL)
	if err != nil {
		return "", err
	}

	service.audit.LogAuthEvent(context, audit.EventPasswordResetRequested, actorOf(user), meta, nil)
	return token, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies the token, enforces the password policy, stores the new
hash and consumes the token. A successful reset also clears any lockout.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string
  - meta: audit.RequestMeta

Returns:
  - error: BadRequest for unknown tokens, ValidationError or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string, meta audit.RequestMeta) error {
	user, err := service.resolveSingleUse(context, service.resetTokens, token, MessageResetTokenInvalid)
	if err != nil {
		return err
	}

	if err := (&validate.Validator{}).PasswordStrength(FieldNewPassword, newPassword).Err(); err != nil {
		return err
	}

	if err := service.setPassword(context, user.ID, newPassword); err != nil {
		return err
	}
	if _, err := service.lockout.RecordSuccess(context, user); err != nil {
		return err
	}

	service.consume(context, service.resetTokens, token)
	service.audit.LogAuthEvent(context, audit.EventPasswordResetCompleted, actorOf(user), meta, nil)
	return nil
}

/*
VerifyEmail confirms a user's email address using a single-use token.

Parameters:
  - context: context.Context
  - token: string
  - meta: audit.RequestMeta

Returns:
  - error: BadRequest for unknown tokens or storage errors
*/
func (service *Service) VerifyEmail(context context.Context, token string, meta audit.RequestMeta) error {
	user, err := service.resolveSingleUse(context, service.verificationTokens, token, MessageVerifyTokenInvalid)
	if err != nil {
		return err
	}

	if _, err := service.users.Update(context, user.ID, identity.Patch{IsVerified: pointer.To(true)}); err != nil {
		return fmt.Errorf("auth_service_verify_email_failed: %w", err)
	}

	service.consume(context, service.verificationTokens, token)
	service.audit.LogAuthEvent(context, audit.EventEmailVerified, actorOf(user), meta, nil)
	return nil
}

// # Internals

func (service *Service) setPassword(context context.Context, userID, password string) error {
	hashedPassword, err := service.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("auth_service_password_hash_failed: %w", err)
	}
	if _, err := service.users.Update(context, userID, identity.Patch{PasswordHash: &hashedPassword}); err != nil {
		return fmt.Errorf("auth_service_password_update_failed: %w", err)
	}
	return nil
}

func (service *Service) issueSingleUse(context context.Context, store TokenStore, userID string, ttl time.Duration) (string, error) {
	token, err := sec.GenerateSecureToken(SingleUseTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_token_failed: %w", err)
	}
	if err := store.Set(context, token, userID, ttl); err != nil {
		return "", fmt.Errorf("auth_service_save_token_failed: %w", err)
	}
	return token, nil
}

// resolveSingleUse maps a token to its account, answering 400 with message when it is unusable.
func (service *Service) resolveSingleUse(context context.Context, store TokenStore, token, message string) (*identity.User, error) {
	if token == "" {
		return nil, apperr.BadRequest(message)
	}

	userID, err := store.Get(context, token)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, apperr.BadRequest(message)
		}
		return nil, fmt.Errorf("auth_service_resolve_token_failed: %w", err)
	}

	user, err := service.users.FindByID(context, userID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, apperr.BadRequest(message)
		}
		return nil, fmt.Errorf("auth_service_resolve_user_failed: %w", err)
	}
	return user, nil
}

// consume deletes a used token. A failed delete leaves it to expire on its own.
func (service *Service) consume(context context.Context, store TokenStore, token string) {
	if err := store.Delete(context, token); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "single_use_token_delete_failed", slog.Any("error", err))
	}
}

func actorOf(user *identity.User) *audit.Actor {
	return &audit.Actor{ID: user.ID, Email: user.Email, Role: user.Role}
}
