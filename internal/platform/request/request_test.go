// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizdesk/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/bizdesk/internal/platform/request"
	"github.com/taibuivan/bizdesk/internal/platform/validate"
	"github.com/taibuivan/bizdesk/internal/users/identity"
)

func TestDecodeJSON(t *testing.T) {
	var payload struct {
		Email string `json:"email"`
	}

	request := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"jane@example.com"}`))
	require.NoError(t, requestutil.DecodeJSON(request, &payload))
	assert.Equal(t, "jane@example.com", payload.Email)

	empty := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.NoError(t, requestutil.DecodeJSON(empty, &payload))

	broken := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
	assert.ErrorIs(t, requestutil.DecodeJSON(broken, &payload), validate.ErrInvalidJSON)
}

func TestRequiredUser(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := requestutil.RequiredUser(request)
	assert.Error(t, err)
	assert.Nil(t, requestutil.User(request))

	user := &identity.User{ID: "u-1", Email: "jane@example.com"}
	request = request.WithContext(ctxutil.WithUser(context.Background(), user, "token"))

	resolved, err := requestutil.RequiredUser(request)
	require.NoError(t, err)
	assert.Same(t, user, resolved)
}
