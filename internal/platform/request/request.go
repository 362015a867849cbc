// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/bizdesk/internal/platform/apperr"
	"github.com/taibuivan/bizdesk/internal/platform/ctxutil"
	"github.com/taibuivan/bizdesk/internal/platform/validate"
	"github.com/taibuivan/bizdesk/internal/users/identity"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

An empty body leaves target untouched.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(request.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
User extracts the authenticated identity from the request context.

Returns nil if the request is not authenticated.
*/
func User(request *http.Request) *identity.User {
	return ctxutil.GetUser(request.Context())
}

/*
RequiredUser ensures the request is authenticated and returns the identity.

Returns:
  - *identity.User: The authenticated identity
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredUser(request *http.Request) (*identity.User, error) {

	// Get the identity attached by the gate
	user := ctxutil.GetUser(request.Context())

	// If the user is not authenticated, return an error
	if user == nil {
		return nil, apperr.Unauthorized("Access token is required")
	}

	return user, nil
}
