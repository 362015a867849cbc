// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizdesk/internal/platform/apperr"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		code   apperr.Code
		status int
	}{
		{"not_found", apperr.NotFound("User"), apperr.CodeNotFound, http.StatusNotFound},
		{"bad_request", apperr.BadRequest("nope"), apperr.CodeBadRequest, http.StatusBadRequest},
		{"validation", apperr.ValidationError("bad"), apperr.CodeValidation, http.StatusBadRequest},
		{"unauthorized", apperr.Unauthorized("who"), apperr.CodeUnauthorized, http.StatusUnauthorized},
		{"locked", apperr.Locked("wait", time.Minute), apperr.CodeAccountLocked, http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("no"), apperr.CodeForbidden, http.StatusForbidden},
		{"conflict", apperr.Conflict("dup"), apperr.CodeConflict, http.StatusConflict},
		{"rate_limited", apperr.RateLimited(time.Second), apperr.CodeRateLimited, http.StatusTooManyRequests},
		{"internal", apperr.Internal(errors.New("boom")), apperr.CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}

	assert.Equal(t, "User not found", apperr.NotFound("User").Error())
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 0, apperr.Unauthorized("x").RetryAfterSeconds())
	assert.Equal(t, 1, apperr.Locked("x", 10*time.Millisecond).RetryAfterSeconds())
	assert.Equal(t, 91, apperr.Locked("x", 90*time.Second+time.Millisecond).RetryAfterSeconds())

	limited := apperr.RateLimited(1500 * time.Millisecond)
	assert.Equal(t, 2, limited.RetryAfterSeconds())
	assert.Equal(t, "Too many requests. Try again in 2s.", limited.Message)
}

func TestAs_WalksWrapChain(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := fmt.Errorf("lockout_reset_failed: %w", apperr.Internal(cause))

	appError := apperr.As(wrapped)
	require.NotNil(t, appError)
	assert.Equal(t, apperr.CodeInternal, appError.Code)
	assert.ErrorIs(t, wrapped, cause)

	assert.Nil(t, apperr.As(cause))
}
