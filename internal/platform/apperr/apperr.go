// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the error type that every service and middleware hands
to [respond.Error].

An [AppError] pairs a client-safe message with an HTTP status and a stable
machine code. Anything else that reaches the transport is treated as an
internal error.
*/
package apperr

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Code is the machine-readable identifier sent in the "code" field.
type Code string

// # Error Codes

const (
	CodeBadRequest    Code = "BAD_REQUEST"
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeAccountLocked Code = "ACCOUNT_LOCKED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeRateLimited   Code = "RATE_LIMITED"
	CodeInternal      Code = "INTERNAL_ERROR"
)

// AppError is the canonical error type of the API.
//
// # Security
//
// Cause is for server-side logging only. It reaches the client solely through
// the debug field, which is populated outside production.
type AppError struct {
	Code       Code
	Message    string
	HTTPStatus int

	// Cause is the underlying error.
	Cause error

	// Details holds per-field failures for [CodeValidation].
	Details []FieldError

	// RetryAfter, when positive, is sent as the Retry-After header.
	RetryAfter time.Duration
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// RetryAfterSeconds rounds RetryAfter up to whole seconds, with a floor of one.
func (e *AppError) RetryAfterSeconds() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	return max(1, int(math.Ceil(e.RetryAfter.Seconds())))
}

func newError(code Code, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("User") // "User not found"
func NotFound(resource string) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, resource+" not found")
}

// BadRequest creates a 400 [AppError] for malformed or missing input.
func BadRequest(message string) *AppError {
	return newError(CodeBadRequest, http.StatusBadRequest, message)
}

// ValidationError creates a 400 [AppError] with per-field details.
func ValidationError(message string, details ...FieldError) *AppError {
	appError := newError(CodeValidation, http.StatusBadRequest, message)
	appError.Details = details
	return appError
}

// Unauthorized creates a 401 [AppError].
//
// Used for every authentication failure: missing or invalid credentials,
// unknown or deactivated accounts.
func Unauthorized(message string) *AppError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, message)
}

// Locked creates a 401 [AppError] for an account inside its lock window.
func Locked(message string, retryAfter time.Duration) *AppError {
	appError := newError(CodeAccountLocked, http.StatusUnauthorized, message)
	appError.RetryAfter = retryAfter
	return appError
}

// Forbidden creates a 403 [AppError]: the caller is authenticated but lacks the required role or ownership.
func Forbidden(message string) *AppError {
	return newError(CodeForbidden, http.StatusForbidden, message)
}

// Conflict creates a 409 [AppError] for unique-constraint violations.
func Conflict(message string) *AppError {
	return newError(CodeConflict, http.StatusConflict, message)
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfter time.Duration) *AppError {
	appError := newError(CodeRateLimited, http.StatusTooManyRequests, "")
	appError.RetryAfter = retryAfter
	appError.Message = fmt.Sprintf("Too many requests. Try again in %ds.", appError.RetryAfterSeconds())
	return appError
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging and reaches the client only in debug mode.
func Internal(cause error) *AppError {
	appError := newError(CodeInternal, http.StatusInternalServerError, "An unexpected error occurred")
	appError.Cause = cause
	return appError
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}
