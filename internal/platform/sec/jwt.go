// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives, token management and the
// role hierarchy.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing, Permission
// evaluation) from the domain logic. Everything here is pure computation: no
// storage and no network access, so every function is safe for concurrent use.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Errors

var (
	// ErrTokenInvalid is matched by every verification failure.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrTokenExpired means the token was well formed and signed but is past its expiry.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrTokenInvalid)

	// ErrTokenSignature means the signature did not match the secret.
	ErrTokenSignature = fmt.Errorf("%w: bad signature", ErrTokenInvalid)

	// ErrTokenMalformed means the token could not be decoded at all.
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrTokenInvalid)
)

// # Claims

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Subject is the identity a token is minted for.
type Subject struct {
	ID    string
	Email string
	Role  Role
}

// AccessClaims is the payload of an access token: {id, email, role, iat, exp}.
type AccessClaims struct {
	ID    string    `json:"id"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
	Type  TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token: {id, email, iat, exp}.
type RefreshClaims struct {
	ID    string    `json:"id"`
	Email string    `json:"email"`
	Type  TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// # Token Service

// TokenConfig configures a [TokenService].
type TokenConfig struct {
	// AccessSecret signs access tokens. Required.
	AccessSecret string
	// RefreshSecret signs refresh tokens. Empty falls back to AccessSecret.
	RefreshSecret string
	// AccessTTL defaults to 24h.
	AccessTTL time.Duration
	// RefreshTTL defaults to 7 days.
	RefreshTTL time.Duration
	// Issuer is written to and required in the "iss" claim.
	Issuer string
}

const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenService signs and verifies HS256 access and refresh tokens.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	sharedSecret  bool
	now           func() time.Time
}

// TokenOption customises a [TokenService].
type TokenOption func(*TokenService)

// WithTokenClock overrides the clock used to stamp and validate tokens.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(service *TokenService) {
		service.now = now
	}
}

// NewTokenService creates a TokenService from an injected configuration.
func NewTokenService(config TokenConfig, options ...TokenOption) (*TokenService, error) {
	if config.AccessSecret == "" {
		return nil, errors.New("sec: access token secret is required")
	}

	service := &TokenService{
		accessSecret:  []byte(config.AccessSecret),
		refreshSecret: []byte(config.RefreshSecret),
		accessTTL:     config.AccessTTL,
		refreshTTL:    config.RefreshTTL,
		issuer:        config.Issuer,
		now:           time.Now,
	}

	// Compatibility fallback: one secret for both token kinds.
	if config.RefreshSecret == "" || config.RefreshSecret == config.AccessSecret {
		service.refreshSecret = service.accessSecret
		service.sharedSecret = true
	}
	if service.accessTTL <= 0 {
		service.accessTTL = DefaultAccessTTL
	}
	if service.refreshTTL <= 0 {
		service.refreshTTL = DefaultRefreshTTL
	}

	for _, option := range options {
		option(service)
	}
	return service, nil
}

// SharesSecret reports whether access and refresh tokens are signed with the same secret.
func (service *TokenService) SharesSecret() bool { return service.sharedSecret }

// AccessTTL returns the lifetime of newly issued access tokens.
func (service *TokenService) AccessTTL() time.Duration { return service.accessTTL }

// RefreshTTL returns the lifetime of newly issued refresh tokens.
func (service *TokenService) RefreshTTL() time.Duration { return service.refreshTTL }

// IssueAccess signs an access token for subject.
func (service *TokenService) IssueAccess(subject Subject) (string, error) {
	claims := AccessClaims{
		ID:               subject.ID,
		Email:            subject.Email,
		Role:             subject.Role,
		Type:             TokenTypeAccess,
		RegisteredClaims: service.registered(service.accessTTL),
	}
	return service.sign(claims, service.accessSecret)
}

// IssueRefresh signs a refresh token for subject. The role is not embedded.
func (service *TokenService) IssueRefresh(subject Subject) (string, error) {
	claims := RefreshClaims{
		ID:               subject.ID,
		Email:            subject.Email,
		Type:             TokenTypeRefresh,
		RegisteredClaims: service.registered(service.refreshTTL),
	}
	return service.sign(claims, service.refreshSecret)
}

// VerifyAccess checks the signature, expiry and type of an access token.
func (service *TokenService) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := service.parse(tokenString, claims, service.accessSecret); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeAccess || claims.ID == "" {
		return nil, fmt.Errorf("%w: not an access token", ErrTokenInvalid)
	}
	return claims, nil
}

// VerifyRefresh checks the signature, expiry and type of a refresh token.
func (service *TokenService) VerifyRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := service.parse(tokenString, claims, service.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeRefresh || claims.ID == "" {
		return nil, fmt.Errorf("%w: not a refresh token", ErrTokenInvalid)
	}
	return claims, nil
}

// registered builds the timing claims for a token that lives for timeToLive.
func (service *TokenService) registered(timeToLive time.Duration) jwt.RegisteredClaims {
	currentTime := service.now()
	return jwt.RegisteredClaims{
		Issuer:    service.issuer,
		IssuedAt:  jwt.NewNumericDate(currentTime),
		ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
	}
}

func (service *TokenService) sign(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signedToken, nil
}

// parse verifies tokenString into claims and classifies any failure.
func (service *TokenService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(service.now),
		jwt.WithExpirationRequired(),
	}
	if service.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(service.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, parserOptions...)

	switch {
	case err == nil && token.Valid:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	default:
		return ErrTokenInvalid
	}
}
