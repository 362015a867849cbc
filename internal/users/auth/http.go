// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/bizdesk/internal/audit"
	"github.com/taibuivan/bizdesk/internal/platform/constants"
	"github.com/taibuivan/bizdesk/internal/platform/middleware"
	requestutil "github.com/taibuivan/bizdesk/internal/platform/request"
	"github.com/taibuivan/bizdesk/internal/platform/respond"
	"github.com/taibuivan/bizdesk/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the user lifecycle entry points
// (Registration, Login, Password Reset callbacks).
type Handler struct {
	authService   *Service
	gate          *middleware.Gate
	limiter       *middleware.RateLimiter
	secureCookies bool
}

// NewHandler constructs a new [Handler].
//
// limiter throttles the credential endpoints; nil disables the extra limit.
// secureCookies marks the refresh cookie Secure and should be off only for plain-HTTP development.
func NewHandler(service *Service, gate *middleware.Gate, limiter *middleware.RateLimiter, secureCookies bool) *Handler {
	return &Handler{authService: service, gate: gate, limiter: limiter, secureCookies: secureCookies}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register        : Creates a new account.
//   - POST /login           : Authenticates and returns a token pair.
//   - POST /refresh         : Exchanges a refresh token for a new pair.
//   - POST /verify-email    : Consumes an email verification token.
//   - POST /forgot-password : Issues a password reset token.
//   - POST /reset-password  : Consumes a reset token.
//   - POST /logout          : Ends the session (authenticated).
//   - POST /change-password : Replaces the password (authenticated).
//   - GET  /me              : Returns the caller's profile (authenticated).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Credential endpoints share the strict limiter
	router.Group(func(r chi.Router) {
		if handler.limiter != nil {
			r.Use(handler.limiter.Handler)
		}
		r.Post("/register", handler.register)
		r.Post("/login", handler.login)
		r.Post("/forgot-password", handler.forgotPassword)
		r.Post("/reset-password", handler.resetPassword)
	})

	// Public endpoints
	router.Post("/refresh", handler.refresh)
	router.Post("/verify-email", handler.verifyEmail)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.gate.Authenticate)
		r.Post("/logout", handler.logout)
		r.Post("/change-password", handler.changePassword)
		r.Get("/me", handler.me)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// sessionResponse is the body returned with a freshly issued token pair.
type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	User         any    `json:"user,omitempty"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (Email, Password, DisplayName)

Response:
  - 201: User: Created user profile
  - 400: ValidationError: Bad input or weak password
  - 409: Conflict: Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := (&validate.Validator{}).Required(FieldPassword, input.Password).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	registration, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	}, audit.MetaFromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, registration.User)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, issues the token pair and injects the
refresh token as an HTTP-only cookie.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: sessionResponse: Token pair and user profile
  - 401: Unauthorized: Invalid credentials, deactivated or locked account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	}, audit.MetaFromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.writeSession(writer, session, true)
}

/*
Logout terminates the current user session.

POST /api/v1/auth/logout

Response:
  - 204: No Content: Refresh cookie cleared
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	user, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.authService.Logout(request.Context(), user, audit.MetaFromRequest(request))

	http.SetCookie(writer, handler.refreshCookie("", time.Time{}, -1))
	respond.NoContent(writer)
}

/*
Refresh issues a new token pair using a valid refresh token.

POST /api/v1/auth/refresh

Description: Reads the refresh token from the cookie, falling back to the
JSON body for clients that cannot hold cookies.

Response:
  - 200: sessionResponse: New token pair
  - 400: BadRequest: No refresh token supplied
  - 401: Unauthorized: Invalid or expired refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var token string
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		token = cookie.Value
	}

	if token == "" {
		var input refreshRequest
		if err := requestutil.DecodeJSON(request, &input); err != nil {
			respond.Error(writer, request, validate.ErrInvalidJSON)
			return
		}
		token = input.RefreshToken
	}

	session, err := handler.authService.Refresh(request.Context(), token, audit.MetaFromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.writeSession(writer, session, false)
}

/*
VerifyEmail confirms a user's email ownership.

POST /api/v1/auth/verify-email

Request:
  - Body: verifyEmailRequest (Token)

Response:
  - 200: Success: Email verified
  - 400: BadRequest: Missing, invalid or expired token
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var input verifyEmailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Token == "" {
		respond.Error(writer, request, validate.Missing(FieldToken))
		return
	}

	if err := handler.authService.VerifyEmail(request.Context(), input.Token, audit.MetaFromRequest(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Email verified successfully",
	})
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgot-password

Description: Always answers with the same message so callers cannot probe which
emails are registered.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Success: Generic acknowledgement
  - 400: ValidationError: Invalid email format
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// TODO: hand the token to the mail delivery worker once one exists.
	if _, err := handler.authService.RequestPasswordReset(request.Context(), input.Email, audit.MetaFromRequest(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If this email is registered, a reset link has been sent.",
	})
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Request:
  - Body: resetPasswordRequest (Token, Password)

Response:
  - 200: Success: Password updated
  - 400: BadRequest or ValidationError: Bad token or weak password
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.Password, audit.MetaFromRequest(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password updated successfully",
	})
}

/*
ChangePassword updates the authenticated user's password.

POST /api/v1/auth/change-password

Request:
  - Body: changePasswordRequest (CurrentPassword, NewPassword)

Response:
  - 200: Success: Password changed
  - 401: Unauthorized: Current password is incorrect
  - 400: ValidationError: Weak password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	user, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangePassword(
		request.Context(),
		user.ID,
		input.CurrentPassword,
		input.NewPassword,
		audit.MetaFromRequest(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password changed successfully",
	})
}

/*
Me returns the authenticated caller.

GET /api/v1/auth/me

Response:
  - 200: User: The account attached by the gate
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	user, err := requestutil.RequiredUser(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

// # Response Helpers

func (handler *Handler) writeSession(writer http.ResponseWriter, session *Session, includeUser bool) {
	http.SetCookie(writer, handler.refreshCookie(session.RefreshToken, session.RefreshTokenExpiresAt, 0))

	body := sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    constants.BearerScheme,
		ExpiresIn:    int64(handler.authService.tokens.AccessTTL() / time.Second),
	}
	if includeUser {
		body.User = session.User
	}
	respond.OK(writer, body)
}

func (handler *Handler) refreshCookie(value string, expires time.Time, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    value,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
