// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/bizdesk/internal/audit"
	"github.com/taibuivan/bizdesk/internal/platform/apperr"
	"github.com/taibuivan/bizdesk/internal/platform/constants"
	"github.com/taibuivan/bizdesk/internal/platform/ctxutil"
	"github.com/taibuivan/bizdesk/internal/platform/metrics"
	"github.com/taibuivan/bizdesk/internal/platform/respond"
	"github.com/taibuivan/bizdesk/internal/platform/sec"
	"github.com/taibuivan/bizdesk/internal/users/identity"
)

// # Rejection Messages

const (
	MessageTokenRequired      = "Access token is required"
	MessageTokenInvalid       = "Invalid or expired token"
	MessageUserNotFound       = "User not found"
	MessageAccountDeactivated = "Account is deactivated"
	MessageAccountLocked      = "Account is temporarily locked"
	MessageForbidden          = "Insufficient permissions"
)

// # Collaborators

// TokenVerifier verifies access tokens.
type TokenVerifier interface {
	VerifyAccess(token string) (*sec.AccessClaims, error)
}

// IdentityFinder loads the current state of an account.
type IdentityFinder interface {
	FindByID(ctx context.Context, id string) (*identity.User, error)
}

// LockChecker reports whether an account is locked right now.
type LockChecker interface {
	IsLocked(user *identity.User) bool
	RemainingLock(user *identity.User) time.Duration
}

// AuditLogger records security events without blocking.
type AuditLogger interface {
	LogAuthEvent(ctx context.Context, event audit.Event, actor *audit.Actor, meta audit.RequestMeta, fields map[string]any)
}

// # Request Gate

// Gate authenticates bearer credentials and authorizes requests by role or ownership.
//
// Every rejection is terminal: the downstream handler never runs.
type Gate struct {
	verifier   TokenVerifier
	identities IdentityFinder
	lockout    LockChecker
	audit      AuditLogger
	metrics    *metrics.Metrics
}

// NewGate creates a Gate. auditLogger and registry may be nil.
func NewGate(verifier TokenVerifier, identities IdentityFinder, lockout LockChecker, auditLogger AuditLogger, registry *metrics.Metrics) *Gate {
	if auditLogger == nil {
		auditLogger = (*audit.Logger)(nil)
	}
	return &Gate{
		verifier:   verifier,
		identities: identities,
		lockout:    lockout,
		audit:      auditLogger,
		metrics:    registry,
	}
}

// rejection pairs the client-facing error with the metric reason.
type rejection struct {
	reason string
	err    *apperr.AppError
}

/*
Authenticate requires a valid bearer credential for a usable account.

# Flow
 1. Extract 'Authorization: Bearer <token>'; absent -> 401.
 2. Verify signature and expiry -> 401 on failure.
 3. Load the account -> 401 if it no longer exists.
 4. Reject deactivated and locked accounts -> 401.
 5. Attach the account and raw token to the context.
*/
func (gate *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

		// ── 1. Credential Extraction ──────────────────────────────────────
		token, present := BearerToken(request)
		if !present {
			gate.reject(writer, request, rejection{"token_missing", apperr.Unauthorized(MessageTokenRequired)})
			return
		}

		// ── 2. Identity Resolution ────────────────────────────────────────
		user, denied := gate.resolve(request.Context(), token)
		if denied != nil {
			gate.reject(writer, request, *denied)
			return
		}

		// ── 3. Context Injection ──────────────────────────────────────────
		next.ServeHTTP(writer, request.WithContext(attach(request.Context(), user, token)))
	})
}

/*
OptionalAuthenticate attaches the account when a usable credential is present
and otherwise lets the request continue anonymously.

Store failures still abort with 500; an unreachable store is not an anonymous caller.
*/
func (gate *Gate) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		token, present := BearerToken(request)
		if !present {
			next.ServeHTTP(writer, request)
			return
		}

		user, denied := gate.resolve(request.Context(), token)
		switch {
		case denied == nil:
			next.ServeHTTP(writer, request.WithContext(attach(request.Context(), user, token)))
		case denied.err.HTTPStatus >= http.StatusInternalServerError:
			gate.reject(writer, request, *denied)
		default:
			ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "optional_auth_ignored",
				slog.String("reason", denied.reason),
			)
			next.ServeHTTP(writer, request)
		}
	})
}

/*
RequireRole blocks callers ranking below minimum.

# Usage

Must be registered in the router AFTER [Gate.Authenticate].
*/
func (gate *Gate) RequireRole(minimum sec.Role) func(http.Handler) http.Handler {
	return gate.requireRoles(func(role sec.Role) bool {
		return sec.HasPermission(role, minimum)
	}, []sec.Role{minimum})
}

// RequireAnyRole blocks callers whose role is not exactly one of roles.
func (gate *Gate) RequireAnyRole(roles ...sec.Role) func(http.Handler) http.Handler {
	return gate.requireRoles(func(role sec.Role) bool {
		return sec.HasRole(role, roles...)
	}, roles)
}

func (gate *Gate) requireRoles(allowed func(sec.Role) bool, required []sec.Role) func(http.Handler) http.Handler {
	requiredNames := make([]string, len(required))
	for index, role := range required {
		requiredNames[index] = string(role)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			user := ctxutil.GetUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if user == nil {
				gate.reject(writer, request, rejection{"token_missing", apperr.Unauthorized(MessageTokenRequired)})
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !allowed(user.Role) {
				gate.deny(writer, request, user, "insufficient_role", map[string]any{
					"attempted_role": string(user.Role),
					"required_roles": requiredNames,
				})
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

/*
RequireOwnership blocks callers that neither own the resource named by the
chi path parameter param nor satisfy rule's bypass.

# Usage

Register per route with chi's With so the path parameter is resolved:

	router.With(gate.RequireOwnership(middleware.AdminOrSelf(), "userID")).Get("/{userID}", handler)
*/
func (gate *Gate) RequireOwnership(rule OwnershipRule, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			user := ctxutil.GetUser(request.Context())
			if user == nil {
				gate.reject(writer, request, rejection{"token_missing", apperr.Unauthorized(MessageTokenRequired)})
				return
			}

			ownerID := chi.URLParam(request, param)
			if !rule.Allows(user, ownerID) {
				gate.deny(writer, request, user, "not_owner", map[string]any{
					"attempted_role": string(user.Role),
					"rule":           rule.String(),
					"owner_id":       ownerID,
				})
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Gate Internals

// resolve runs verification, lookup, active and lock checks in order.
func (gate *Gate) resolve(ctx context.Context, token string) (*identity.User, *rejection) {
	claims, err := gate.verifier.VerifyAccess(token)
	if err != nil {
		return nil, &rejection{"token_invalid", apperr.Unauthorized(MessageTokenInvalid)}
	}

	user, err := gate.identities.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, &rejection{"user_not_found", apperr.Unauthorized(MessageUserNotFound)}
		}
		return nil, &rejection{"store_error", apperr.Internal(err)}
	}

	if !user.IsActive {
		return nil, &rejection{"account_inactive", apperr.Unauthorized(MessageAccountDeactivated)}
	}
	if gate.lockout.IsLocked(user) {
		return nil, &rejection{"account_locked", apperr.Locked(MessageAccountLocked, gate.lockout.RemainingLock(user))}
	}
	return user, nil
}

// deny rejects with 403 and emits an access_denied audit entry.
func (gate *Gate) deny(writer http.ResponseWriter, request *http.Request, user *identity.User, reason string, fields map[string]any) {
	fields["resource"] = request.URL.Path
	fields["method"] = request.Method

	gate.audit.LogAuthEvent(request.Context(), audit.EventAccessDenied,
		&audit.Actor{ID: user.ID, Email: user.Email, Role: user.Role},
		audit.MetaFromRequest(request),
		fields,
	)
	gate.reject(writer, request, rejection{reason, apperr.Forbidden(MessageForbidden)})
}

func (gate *Gate) reject(writer http.ResponseWriter, request *http.Request, denied rejection) {
	gate.metrics.GateRejected(denied.reason)
	ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "auth_gate_rejected",
		slog.String("reason", denied.reason),
	)
	respond.Error(writer, request, denied.err)
}

// attach stores the identity and enriches the request logger with it.
func attach(ctx context.Context, user *identity.User, token string) context.Context {
	logger := ctxutil.GetLogger(ctx).With(slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	ctx = ctxutil.WithLogger(ctx, logger)
	return ctxutil.WithUser(ctx, user, token)
}

// BearerToken extracts the credential from 'Authorization: Bearer <token>'.
//
// Anything other than exactly two space-separated parts with the case-sensitive
// scheme "Bearer" counts as absent.
func BearerToken(request *http.Request) (string, bool) {
	header := request.Header.Get(constants.HeaderAuthorization)
	if header == "" {
		return "", false
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != constants.BearerScheme || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
