// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account provides profile lookup and operator controls over user accounts.

# Security

Every route requires authentication. Reads are scoped by ownership rules and
the operator actions require a minimum role, all enforced by the [middleware.Gate].
*/
package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/bizdesk/internal/audit"
	"github.com/taibuivan/bizdesk/internal/platform/middleware"
	requestutil "github.com/taibuivan/bizdesk/internal/platform/request"
	"github.com/taibuivan/bizdesk/internal/platform/respond"
	"github.com/taibuivan/bizdesk/internal/platform/sec"
	"github.com/taibuivan/bizdesk/internal/platform/validate"
)

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
	gate           *middleware.Gate
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, gate *middleware.Gate) *Handler {
	return &Handler{accountService: service, gate: gate}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
//
// # Endpoints
//   - GET   /{userID}            : Profile (owner or admin).
//   - PATCH /{userID}            : Profile update (owner only).
//   - GET   /{userID}/lockout    : Lockout state (owner, manager or admin).
//   - POST  /{userID}/unlock     : Clear the lockout (admin).
//   - POST  /{userID}/deactivate : Disable the account (admin).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.gate.Authenticate)

	gate := handler.gate
	router.With(gate.RequireOwnership(middleware.AdminOrSelf(), FieldUserID)).Get("/{userID}", handler.getProfile)
	router.With(gate.RequireOwnership(middleware.SelfOnly(), FieldUserID)).Patch("/{userID}", handler.updateProfile)
	router.With(gate.RequireOwnership(middleware.AdminOrMinRole(sec.RoleManager), FieldUserID)).Get("/{userID}/lockout", handler.getLockout)

	// Operator actions
	router.Group(func(r chi.Router) {
		r.Use(gate.RequireRole(sec.RoleAdmin))
		r.Post("/{userID}/unlock", handler.unlock)
		r.Post("/{userID}/deactivate", handler.deactivate)
	})

	return router
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
}

/*
GET /api/v1/users/{userID}.

Response:
  - 200: User: Profile
  - 403: Forbidden: Neither the owner nor an admin
  - 404: NotFound: Unknown user
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.accountService.Profile(request.Context(), requestutil.Param(request, FieldUserID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

/*
PATCH /api/v1/users/{userID}.

Request:
  - Body: updateProfileRequest (DisplayName)

Response:
  - 200: User: Updated profile
  - 400: ValidationError: Display name too long
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), requestutil.Param(request, FieldUserID), UpdateProfileInput{
		DisplayName: input.DisplayName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

/*
GET /api/v1/users/{userID}/lockout.

Response:
  - 200: LockoutStatus: Counter and lock deadline
*/
func (handler *Handler) getLockout(writer http.ResponseWriter, request *http.Request) {
	status, err := handler.accountService.LockoutStatus(request.Context(), requestutil.Param(request, FieldUserID))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, status)
}

/*
POST /api/v1/users/{userID}/unlock.

Response:
  - 200: LockoutStatus: State after the reset
*/
func (handler *Handler) unlock(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	status, err := handler.accountService.Unlock(request.Context(), actor, requestutil.Param(request, FieldUserID), audit.MetaFromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, status)
}

/*
POST /api/v1/users/{userID}/deactivate.

Response:
  - 200: User: The deactivated account
  - 400: BadRequest: Attempt to deactivate oneself
*/
func (handler *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Deactivate(request.Context(), actor, requestutil.Param(request, FieldUserID), audit.MetaFromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}
