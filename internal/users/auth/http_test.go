// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizdesk/internal/platform/middleware"
	"github.com/taibuivan/bizdesk/internal/users/auth"
)

func newAuthRouter(t *testing.T) (*authFixture, http.Handler) {
	t.Helper()
	fixture := newAuthFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	gate := middleware.NewGate(fixture.tokens, fixture.store, fixture.lockout, fixture.auditLog, nil)
	limiter := middleware.NewRateLimiter(ctx, 100, 100)
	return fixture, auth.NewHandler(fixture.service, gate, limiter, false).Routes()
}

func post(handler http.Handler, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	for _, apply := range mutate {
		apply(request)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

type sessionBody struct {
	Data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		ExpiresIn    int64  `json:"expires_in"`
	} `json:"data"`
}

/*
TestHandler_LoginRefreshMe drives the login, refresh and profile endpoints end to end.
*/
func TestHandler_LoginRefreshMe(t *testing.T) {
	fixture, router := newAuthRouter(t)

	recorder := post(router, "/register", `{"email":"jane@example.com","password":"Str0ng!Pass","display_name":"Jane"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "password_hash")

	recorder = post(router, "/login", `{"email":"jane@example.com","password":"Str0ng!Pass"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var login sessionBody
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &login))
	assert.Equal(t, "Bearer", login.Data.TokenType)
	assert.Equal(t, int64(fixture.tokens.AccessTTL().Seconds()), login.Data.ExpiresIn)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "refresh_token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, login.Data.RefreshToken, cookies[0].Value)

	// Refresh from the cookie.
	recorder = post(router, "/refresh", "", func(request *http.Request) { request.AddCookie(cookies[0]) })
	require.Equal(t, http.StatusOK, recorder.Code)

	// Refresh from the body.
	recorder = post(router, "/refresh", `{"refresh_token":"`+login.Data.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	// No token at all.
	recorder = post(router, "/refresh", "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	request := httptest.NewRequest(http.MethodGet, "/me", nil)
	request.Header.Set("Authorization", "Bearer "+login.Data.AccessToken)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "jane@example.com")
}

/*
TestHandler_ProtectedRoutesRequireToken rejects anonymous calls to authenticated endpoints.
*/
func TestHandler_ProtectedRoutesRequireToken(t *testing.T) {
	_, router := newAuthRouter(t)

	for _, path := range []string{"/logout", "/change-password"} {
		recorder := post(router, path, `{}`)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, path)
	}
}

/*
TestHandler_ForgotPasswordIsUniform answers identically for known and unknown emails.
*/
func TestHandler_ForgotPasswordIsUniform(t *testing.T) {
	_, router := newAuthRouter(t)
	require.Equal(t, http.StatusCreated, post(router, "/register", `{"email":"jane@example.com","password":"Str0ng!Pass"}`).Code)

	known := post(router, "/forgot-password", `{"email":"jane@example.com"}`)
	unknown := post(router, "/forgot-password", `{"email":"nobody@example.com"}`)

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

/*
TestHandler_LoginValidation rejects malformed bodies before touching the store.
*/
func TestHandler_LoginValidation(t *testing.T) {
	_, router := newAuthRouter(t)

	assert.Equal(t, http.StatusBadRequest, post(router, "/login", `{not json`).Code)
	assert.Equal(t, http.StatusBadRequest, post(router, "/login", `{"email":""}`).Code)
}

/*
TestHandler_Logout clears the refresh cookie.
*/
func TestHandler_Logout(t *testing.T) {
	_, router := newAuthRouter(t)
	require.Equal(t, http.StatusCreated, post(router, "/register", `{"email":"jane@example.com","password":"Str0ng!Pass"}`).Code)

	var login sessionBody
	require.NoError(t, json.Unmarshal(post(router, "/login", `{"email":"jane@example.com","password":"Str0ng!Pass"}`).Body.Bytes(), &login))

	recorder := post(router, "/logout", "", func(request *http.Request) {
		request.Header.Set("Authorization", "Bearer "+login.Data.AccessToken)
	})
	require.Equal(t, http.StatusNoContent, recorder.Code)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
