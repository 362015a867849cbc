// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizdesk/internal/audit"
	"github.com/taibuivan/bizdesk/internal/platform/apperr"
	"github.com/taibuivan/bizdesk/internal/platform/metrics"
	"github.com/taibuivan/bizdesk/internal/platform/middleware"
	"github.com/taibuivan/bizdesk/internal/platform/sec"
	"github.com/taibuivan/bizdesk/internal/users/auth"
	"github.com/taibuivan/bizdesk/internal/users/identity"
	"github.com/taibuivan/bizdesk/pkg/pointer"
)

const strongPassword = "Str0ng!Pass"

// recordingSink keeps every audited event name.
type recordingSink struct {
	mutex   sync.Mutex
	entries []audit.Entry
}

func (sink *recordingSink) Write(_ context.Context, entry audit.Entry) error {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	sink.entries = append(sink.entries, entry)
	return nil
}

type authFixture struct {
	service      *auth.Service
	store        *identity.MemoryStore
	lockout      *identity.Lockout
	tokens       *sec.TokenService
	resetTokens  *auth.MemoryTokenStore
	verifyTokens *auth.MemoryTokenStore
	auditLog     *audit.Logger
	sink         *recordingSink
	now          time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	fixture := &authFixture{
		store: identity.NewMemoryStore(),
		sink:  &recordingSink{},
		now:   time.Now(),
	}
	clock := func() time.Time { return fixture.now }

	tokens, err := sec.NewTokenService(sec.TokenConfig{AccessSecret: "access", RefreshSecret: "refresh", Issuer: "bizdesk"})
	require.NoError(t, err)

	fixture.tokens = tokens
	fixture.lockout = identity.NewLockout(fixture.store, identity.DefaultLockoutPolicy(), identity.WithLockoutClock(clock))
	fixture.resetTokens = auth.NewMemoryTokenStore(clock)
	fixture.verifyTokens = auth.NewMemoryTokenStore(clock)
	fixture.auditLog = audit.NewLogger(nil, fixture.sink)

	fixture.service = auth.NewService(auth.Dependencies{
		Users:              fixture.store,
		Lockout:            fixture.lockout,
		Hasher:             sec.NewPasswordHasher(4),
		Tokens:             tokens,
		ResetTokens:        fixture.resetTokens,
		VerificationTokens: fixture.verifyTokens,
		Audit:              fixture.auditLog,
		Metrics:            metrics.New(),
	}, auth.WithClock(clock))
	return fixture
}

func (fixture *authFixture) register(t *testing.T, email string) *auth.Registration {
	t.Helper()
	registration, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Email:    email,
		Password: strongPassword,
	}, audit.RequestMeta{})
	require.NoError(t, err)
	return registration
}

func (fixture *authFixture) login(email, password string) (*auth.Session, error) {
	return fixture.service.Login(context.Background(), auth.LoginInput{Email: email, Password: password}, audit.RequestMeta{})
}

// events drains pending audit writes and returns the event names. Delivery order is not guaranteed.
func (fixture *authFixture) events(t *testing.T) []audit.Event {
	t.Helper()
	require.NoError(t, fixture.auditLog.Drain(context.Background()))

	fixture.sink.mutex.Lock()
	defer fixture.sink.mutex.Unlock()

	events := make([]audit.Event, len(fixture.sink.entries))
	for index, entry := range fixture.sink.entries {
		events[index] = entry.Event
	}
	return events
}

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	appError := apperr.As(err)
	require.NotNil(t, appError, "expected an AppError, got %v", err)
	assert.Equal(t, status, appError.HTTPStatus)
	if message != "" {
		assert.Equal(t, message, appError.Message)
	}
}

// # Registration

/*
TestRegister_NormalizesAndDefaults verifies a new account is an active, unverified employee.
*/
func TestRegister_NormalizesAndDefaults(t *testing.T) {
	fixture := newAuthFixture(t)

	registration := fixture.register(t, "  Jane.Doe@Example.COM ")

	assert.Equal(t, "jane.doe@example.com", registration.User.Email)
	assert.Equal(t, sec.RoleEmployee, registration.User.Role)
	assert.True(t, registration.User.IsActive)
	assert.False(t, registration.User.IsVerified)
	assert.NotEqual(t, strongPassword, registration.User.PasswordHash)
	assert.NotEmpty(t, registration.VerificationToken)

	assert.Contains(t, fixture.events(t), audit.EventUserRegistered)
}

/*
TestRegister_WeakPassword reports every strength finding as field details.
*/
func TestRegister_WeakPassword(t *testing.T) {
	fixture := newAuthFixture(t)

	_, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Email:    "jane@example.com",
		Password: "abc",
	}, audit.RequestMeta{})

	requireAppError(t, err, http.StatusBadRequest, "")
	details := apperr.As(err).Details
	require.NotEmpty(t, details)
	assert.Equal(t, "password", details[0].Field)
	assert.Equal(t, "Password must be at least 8 characters long", details[0].Message)
}

/*
TestRegister_AdvisoryFindingsDoNotBlock accepts a long lowercase password.
*/
func TestRegister_AdvisoryFindingsDoNotBlock(t *testing.T) {
	fixture := newAuthFixture(t)

	_, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Email:    "jane@example.com",
		Password: "lowercaseonly",
	}, audit.RequestMeta{})
	assert.NoError(t, err)
}

/*
TestRegister_DuplicateEmail rejects the same address in another case.
*/
func TestRegister_DuplicateEmail(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "jane@example.com")

	_, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Email:    "JANE@example.com",
		Password: strongPassword,
	}, audit.RequestMeta{})
	requireAppError(t, err, http.StatusConflict, auth.MessageEmailTaken)
}

// # Login

/*
TestLogin_Success issues a verifiable token pair and resets the counter.
*/
func TestLogin_Success(t *testing.T) {
	fixture := newAuthFixture(t)
	registration := fixture.register(t, "jane@example.com")

	_, err := fixture.login("jane@example.com", "wrong-password")
	require.Error(t, err)

	session, err := fixture.login("JANE@example.com", strongPassword)
	require.NoError(t, err)

	claims, err := fixture.tokens.VerifyAccess(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registration.User.ID, claims.ID)
	assert.Equal(t, sec.RoleEmployee, claims.Role)

	refreshClaims, err := fixture.tokens.VerifyRefresh(session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registration.User.ID, refreshClaims.ID)

	assert.Equal(t, 0, session.User.FailedAttempts)
	assert.NotNil(t, session.User.LastLoginAt)
	assert.Equal(t, fixture.now.Add(24*time.Hour), session.AccessTokenExpiresAt)

	assert.ElementsMatch(t, []audit.Event{audit.EventUserRegistered, audit.EventLoginFailed, audit.EventLoginSuccess}, fixture.events(t))
}

/*
TestLogin_UnknownUser answers with the generic credential message.
*/
func TestLogin_UnknownUser(t *testing.T) {
	fixture := newAuthFixture(t)

	_, err := fixture.login("nobody@example.com", strongPassword)
	requireAppError(t, err, http.StatusUnauthorized, auth.MessageInvalidCredentials)
}

/*
TestLogin_Deactivated rejects inactive accounts even with the right password.
*/
func TestLogin_Deactivated(t *testing.T) {
	fixture := newAuthFixture(t)
	registration := fixture.register(t, "jane@example.com")
	_, err := fixture.store.Update(context.Background(), registration.User.ID, identity.Patch{IsActive: pointer.To(false)})
	require.NoError(t, err)

	_, err = fixture.login("jane@example.com", strongPassword)
	requireAppError(t, err, http.StatusUnauthorized, middleware.MessageAccountDeactivated)
}

/*
TestLogin_LockoutLifecycle walks five failures into a lock, a rejected correct
password while locked and a successful login after the lock elapses.
*/
func TestLogin_LockoutLifecycle(t *testing.T) {
	fixture := newAuthFixture(t)
	registration := fixture.register(t, "jane@example.com")

	for attempt := 1; attempt <= 5; attempt++ {
		_, err := fixture.login("jane@example.com", "wrong-password")
		requireAppError(t, err, http.StatusUnauthorized, auth.MessageInvalidCredentials)
	}

	stored, err := fixture.store.FindByID(context.Background(), registration.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.FailedAttempts)
	require.NotNil(t, stored.LockUntil)
	assert.WithinDuration(t, fixture.now.Add(30*time.Minute), *stored.LockUntil, time.Second)

	// Locked: the right password is refused and the counter stays frozen.
	_, err = fixture.login("jane@example.com", strongPassword)
	requireAppError(t, err, http.StatusUnauthorized, middleware.MessageAccountLocked)
	assert.Equal(t, apperr.CodeAccountLocked, apperr.As(err).Code)
	assert.Positive(t, apperr.As(err).RetryAfterSeconds())

	stored, err = fixture.store.FindByID(context.Background(), registration.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.FailedAttempts)

	// Elapsed: the lock no longer applies.
	fixture.now = fixture.now.Add(31 * time.Minute)
	session, err := fixture.login("jane@example.com", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, 0, session.User.FailedAttempts)
	assert.Nil(t, session.User.LockUntil)

	events := fixture.events(t)
	assert.Contains(t, events, audit.EventAccountLocked)
	assert.Contains(t, events, audit.EventLoginSuccess)
}

/*
TestLogin_ElapsedLockRestartsCount resets the counter to one on the first failure after a lock.
*/
func TestLogin_ElapsedLockRestartsCount(t *testing.T) {
	fixture := newAuthFixture(t)
	registration := fixture.register(t, "jane@example.com")

	for attempt := 0; attempt < 5; attempt++ {
		_, _ = fixture.login("jane@example.com", "wrong-password")
	}
	fixture.now = fixture.now.Add(31 * time.Minute)

	_, err := fixture.login("jane@example.com", "wrong-password")
	requireAppError(t, err, http.StatusUnauthorized, auth.MessageInvalidCredentials)

	stored, err := fixture.store.FindByID(context.Background(), registration.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.FailedAttempts)
	assert.Nil(t, stored.LockUntil)
}

// # Refresh

/*
TestRefresh covers missing, invalid and valid refresh tokens.
*/
func TestRefresh(t *testing.T) {
	fixture := newAuthFixture(t)
	registration := fixture.register(t, "jane@example.com")
	session, err := fixture.login("jane@example.com", strongPassword)
	require.NoError(t, err)

	_, err = fixture.service.Refresh(context.Background(), "", audit.RequestMeta{})
	requireAppError(t, err, http.StatusBadRequest, auth.MessageRefreshTokenRequired)

	_, err = fixture.service.Refresh(context.Background(), "garbage", audit.RequestMeta{})
	requireAppError(t, err, http.StatusUnauthorized, auth.MessageRefreshTokenInvalid)

	// An access token is not a refresh token.
	_, err = fixture.service.Refresh(context.Background(), session.AccessToken, audit.RequestMeta{})
	requireAppError(t, err, http.StatusUnauthorized, auth.MessageRefreshTokenInvalid)

	refreshed, err := fixture.service.Refresh(context.Background(), session.RefreshToken, audit.RequestMeta{})
	require.NoError(t, err)
	claims, err := fixture.tokens.VerifyAccess(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registration.User.ID, claims.ID)

	events := fixture.events(t)
	assert.Contains(t, events, audit.EventTokenRefreshFailed)
	assert.Contains(t, events, audit.EventTokenRefreshed)
}

/*
TestRefresh_DeactivatedAccount stops refreshing once the account is disabled.
*/
func TestRefresh_DeactivatedAccount(t *testing.T) {
	fixture := newAuthFixture(t)
	registration := fixture.register(t, "jane@example.com")
	session, err := fixture.login("jane@example.com", strongPassword)
	require.NoError(t, err)

	_, err = fixture.store.Update(context.Background(), registration.User.ID, identity.Patch{IsActive: pointer.To(false)})
	require.NoError(t, err)

	_, err = fixture.service.Refresh(context.Background(), session.RefreshToken, audit.RequestMeta{})
	requireAppError(t, err, http.StatusUnauthorized, auth.MessageRefreshTokenInvalid)
}

// # Password Management

/*
TestChangePassword rejects a wrong current password and a weak replacement.
*/
func TestChangePassword(t *testing.T) {
	fixture := newAuthFixture(t)
	registration := fixture.register(t, "jane@example.com")
	userID := registration.User.ID

	err := fixture.service.ChangePassword(context.Background(), userID, "wrong", "N3w!Password", audit.RequestMeta{})
	requireAppError(t, err, http.StatusUnauthorized, auth.MessageCurrentPasswordWrong)

	err = fixture.service.ChangePassword(context.Background(), userID, strongPassword, "short", audit.RequestMeta{})
	requireAppError(t, err, http.StatusBadRequest, "")

	require.NoError(t, fixture.service.ChangePassword(context.Background(), userID, strongPassword, "N3w!Password", audit.RequestMeta{}))

	_, err = fixture.login("jane@example.com", strongPassword)
	assert.Error(t, err)
	_, err = fixture.login("jane@example.com", "N3w!Password")
	assert.NoError(t, err)

	assert.Contains(t, fixture.events(t), audit.EventPasswordChanged)
}

/*
TestPasswordReset_Flow resets once and refuses to reuse the token.
*/
func TestPasswordReset_Flow(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "jane@example.com")

	token, err := fixture.service.RequestPasswordReset(context.Background(), "nobody@example.com", audit.RequestMeta{})
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = fixture.service.RequestPasswordReset(context.Background(), "Jane@Example.com", audit.RequestMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// A weak password keeps the token usable.
	err = fixture.service.ResetPassword(context.Background(), token, "weak", audit.RequestMeta{})
	requireAppError(t, err, http.StatusBadRequest, "")

	require.NoError(t, fixture.service.ResetPassword(context.Background(), token, "R3set!Password", audit.RequestMeta{}))

	_, err = fixture.login("jane@example.com", "R3set!Password")
	assert.NoError(t, err)

	err = fixture.service.ResetPassword(context.Background(), token, "An0ther!Password", audit.RequestMeta{})
	requireAppError(t, err, http.StatusBadRequest, auth.MessageResetTokenInvalid)

	events := fixture.events(t)
	assert.Contains(t, events, audit.EventPasswordResetRequested)
	assert.Contains(t, events, audit.EventPasswordResetCompleted)
}

/*
TestPasswordReset_ExpiredToken refuses tokens past their TTL.
*/
func TestPasswordReset_ExpiredToken(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "jane@example.com")

	token, err := fixture.service.RequestPasswordReset(context.Background(), "jane@example.com", audit.RequestMeta{})
	require.NoError(t, err)

	fixture.now = fixture.now.Add(auth.ResetTokenTTL + time.Second)
	err = fixture.service.ResetPassword(context.Background(), token, "R3set!Password", audit.RequestMeta{})
	requireAppError(t, err, http.StatusBadRequest, auth.MessageResetTokenInvalid)
}

/*
TestPasswordReset_ClearsLockout lets a locked user back in after a reset.
*/
func TestPasswordReset_ClearsLockout(t *testing.T) {
	fixture := newAuthFixture(t)
	fixture.register(t, "jane@example.com")
	for attempt := 0; attempt < 5; attempt++ {
		_, _ = fixture.login("jane@example.com", "wrong-password")
	}

	token, err := fixture.service.RequestPasswordReset(context.Background(), "jane@example.com", audit.RequestMeta{})
	require.NoError(t, err)
	require.NoError(t, fixture.service.ResetPassword(context.Background(), token, "R3set!Password", audit.RequestMeta{}))

	_, err = fixture.login("jane@example.com", "R3set!Password")
	assert.NoError(t, err)
}

// # Email Verification

/*
TestVerifyEmail marks the account verified and consumes the token.
*/
func TestVerifyEmail(t *testing.T) {
	fixture := newAuthFixture(t)
	registration := fixture.register(t, "jane@example.com")

	err := fixture.service.VerifyEmail(context.Background(), "unknown", audit.RequestMeta{})
	requireAppError(t, err, http.StatusBadRequest, auth.MessageVerifyTokenInvalid)

	require.NoError(t, fixture.service.VerifyEmail(context.Background(), registration.VerificationToken, audit.RequestMeta{}))

	stored, err := fixture.store.FindByID(context.Background(), registration.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)

	err = fixture.service.VerifyEmail(context.Background(), registration.VerificationToken, audit.RequestMeta{})
	requireAppError(t, err, http.StatusBadRequest, auth.MessageVerifyTokenInvalid)

	assert.Contains(t, fixture.events(t), audit.EventEmailVerified)
}
