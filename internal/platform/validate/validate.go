// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// Handlers use it for presence checks on decoded payloads. Services use it for
// the rules that define a valid account: address format, name length and the
// password policy.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/bizdesk/internal/platform/apperr"
	"github.com/taibuivan/bizdesk/internal/platform/sec"
)

const (
	messageFailed   = "Validation failed"
	messageRequired = "This field is required"
)

// ErrInvalidJSON is returned when the request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. Create one per operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, messageRequired)
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds limit.
func (v *Validator) MaxLen(field, value string, limit int) *Validator {
	if utf8.RuneCountInString(value) > limit {
		v.add(field, fmt.Sprintf("Maximum %d characters", limit))
	}
	return v
}

// Email fails unless value is a bare RFC 5322 address.
//
// Display-name forms such as "Jane <jane@example.com>" parse as valid
// addresses but are rejected here, as an account key is the address alone.
func (v *Validator) Email(field, value string) *Validator {
	address, err := mail.ParseAddress(value)
	if err != nil || address.Address != value {
		v.add(field, "Must be a valid email address")
	}
	return v
}

// PasswordStrength fails when the password breaks the length policy.
//
// The advisory findings of [sec.ValidatePasswordStrength] (missing character
// classes, repeated characters) are reported alongside but never fail on their own.
func (v *Validator) PasswordStrength(field, password string) *Validator {
	report := sec.ValidatePasswordStrength(password)
	if report.IsValid {
		return v
	}
	for _, message := range report.Errors {
		v.add(field, message)
	}
	return v
}

// Err returns a VALIDATION_ERROR [apperr.AppError] if any rule failed, or nil.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError(messageFailed, v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

// Missing builds the error for a single absent field.
func Missing(field string) *apperr.AppError {
	return apperr.ValidationError(messageFailed, apperr.FieldError{Field: field, Message: messageRequired})
}
