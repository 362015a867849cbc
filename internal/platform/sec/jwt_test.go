// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizdesk/internal/platform/sec"
)

var testSubject = sec.Subject{ID: "user-1", Email: "jane@example.com", Role: sec.RoleManager}

func newTokenService(t *testing.T, config sec.TokenConfig, options ...sec.TokenOption) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(config, options...)
	require.NoError(t, err)
	return service
}

/*
TestTokenService_AccessRoundTrip verifies issued access tokens decode to the subject.
*/
func TestTokenService_AccessRoundTrip(t *testing.T) {
	service := newTokenService(t, sec.TokenConfig{AccessSecret: "access-secret", RefreshSecret: "refresh-secret", Issuer: "bizdesk"})

	token, err := service.IssueAccess(testSubject)
	require.NoError(t, err)

	claims, err := service.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.ID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, sec.RoleManager, claims.Role)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
	assert.Equal(t, sec.DefaultAccessTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

/*
TestTokenService_RefreshRoundTrip verifies refresh tokens carry no role and use the refresh TTL.
*/
func TestTokenService_RefreshRoundTrip(t *testing.T) {
	service := newTokenService(t, sec.TokenConfig{AccessSecret: "access-secret", RefreshSecret: "refresh-secret"})

	token, err := service.IssueRefresh(testSubject)
	require.NoError(t, err)

	claims, err := service.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.ID)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, sec.DefaultRefreshTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	_, hasRole := parsed.Claims.(jwt.MapClaims)["role"]
	assert.False(t, hasRole)
}

/*
TestTokenService_Expired checks that a token past its expiry is classified as expired.
*/
func TestTokenService_Expired(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	current := issuedAt
	clock := func() time.Time { return current }

	service := newTokenService(t, sec.TokenConfig{AccessSecret: "access-secret"}, sec.WithTokenClock(clock))

	token, err := service.IssueAccess(testSubject)
	require.NoError(t, err)

	current = issuedAt.Add(25 * time.Hour)
	_, err = service.VerifyAccess(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_WrongSecret checks that tokens signed by another secret fail as a bad signature.
*/
func TestTokenService_WrongSecret(t *testing.T) {
	issuer := newTokenService(t, sec.TokenConfig{AccessSecret: "secret-one"})
	verifier := newTokenService(t, sec.TokenConfig{AccessSecret: "secret-two"})

	token, err := issuer.IssueAccess(testSubject)
	require.NoError(t, err)

	_, err = verifier.VerifyAccess(token)
	assert.ErrorIs(t, err, sec.ErrTokenSignature)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_Malformed checks garbage input is classified as malformed.
*/
func TestTokenService_Malformed(t *testing.T) {
	service := newTokenService(t, sec.TokenConfig{AccessSecret: "access-secret"})

	for _, token := range []string{"", "abc", "a.b.c", strings.Repeat("x", 64)} {
		_, err := service.VerifyAccess(token)
		assert.ErrorIs(t, err, sec.ErrTokenInvalid, "token %q", token)
	}

	_, err := service.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, sec.ErrTokenMalformed)
}

/*
TestTokenService_RejectsOtherAlgorithms makes sure only HS256 tokens are accepted.
*/
func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	service := newTokenService(t, sec.TokenConfig{AccessSecret: "access-secret"})

	claims := jwt.MapClaims{
		"id":  "user-1",
		"typ": "access",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)

	_, err = service.VerifyAccess(token)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.VerifyAccess(unsigned)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_SharedSecretFallback covers the refresh secret fallback and the token type check.
*/
func TestTokenService_SharedSecretFallback(t *testing.T) {
	shared := newTokenService(t, sec.TokenConfig{AccessSecret: "only-secret"})
	assert.True(t, shared.SharesSecret())

	separate := newTokenService(t, sec.TokenConfig{AccessSecret: "access-secret", RefreshSecret: "refresh-secret"})
	assert.False(t, separate.SharesSecret())

	// With a shared secret a refresh token must still not pass as an access token.
	refresh, err := shared.IssueRefresh(testSubject)
	require.NoError(t, err)
	_, err = shared.VerifyAccess(refresh)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)

	access, err := shared.IssueAccess(testSubject)
	require.NoError(t, err)
	_, err = shared.VerifyRefresh(access)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_SeparateSecrets ensures a refresh token is not verifiable under the access secret.
*/
func TestTokenService_SeparateSecrets(t *testing.T) {
	service := newTokenService(t, sec.TokenConfig{AccessSecret: "access-secret", RefreshSecret: "refresh-secret"})

	refresh, err := service.IssueRefresh(testSubject)
	require.NoError(t, err)

	_, err = service.VerifyAccess(refresh)
	assert.ErrorIs(t, err, sec.ErrTokenSignature)
}

/*
TestTokenService_CustomTTL checks that configured lifetimes are honoured.
*/
func TestTokenService_CustomTTL(t *testing.T) {
	service := newTokenService(t, sec.TokenConfig{AccessSecret: "s", AccessTTL: 15 * time.Minute, RefreshTTL: 48 * time.Hour})

	token, err := service.IssueAccess(testSubject)
	require.NoError(t, err)
	claims, err := service.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.Equal(t, 48*time.Hour, service.RefreshTTL())
}

/*
TestNewTokenService_RequiresSecret rejects an empty access secret.
*/
func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := sec.NewTokenService(sec.TokenConfig{})
	assert.Error(t, err)
}
