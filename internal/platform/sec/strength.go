// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// # Password Policy

const (
	// PasswordMinLength is the shortest accepted password, in characters.
	PasswordMinLength = 8
	// PasswordMaxLength is the longest accepted password, in characters.
	PasswordMaxLength = 128

	// passwordBonusLength earns an extra score point.
	passwordBonusLength = 12
	// passwordRepeatRun is the run of identical characters that costs a point.
	passwordRepeatRun = 3
	// passwordMaxScore caps the advisory score.
	passwordMaxScore = 5
)

// StrengthReport is the outcome of [ValidatePasswordStrength].
//
// Only the length rules decide IsValid. Missing character classes and repeated
// characters add to Errors and lower Score but never flip IsValid.
type StrengthReport struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
	Score   int      `json:"score"`
}

/*
ValidatePasswordStrength evaluates a candidate password against the policy.

Every rule is evaluated independently and the score is clamped to [0, 5].

Parameters:
  - password: string

Returns:
  - StrengthReport: validity, accumulated errors and advisory score
*/
func ValidatePasswordStrength(password string) StrengthReport {
	report := StrengthReport{IsValid: true, Errors: []string{}}

	length := utf8.RuneCountInString(password)
	if length < PasswordMinLength {
		report.IsValid = false
		report.Errors = append(report.Errors, fmt.Sprintf("Password must be at least %d characters long", PasswordMinLength))
	}
	if length > PasswordMaxLength {
		report.IsValid = false
		report.Errors = append(report.Errors, fmt.Sprintf("Password must not exceed %d characters", PasswordMaxLength))
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	classes := []struct {
		present bool
		message string
	}{
		{hasUpper, "Password must contain at least one uppercase letter"},
		{hasLower, "Password must contain at least one lowercase letter"},
		{hasDigit, "Password must contain at least one number"},
		{hasSymbol, "Password must contain at least one special character"},
	}
	for _, class := range classes {
		if class.present {
			report.Score++
			continue
		}
		report.Score--
		report.Errors = append(report.Errors, class.message)
	}

	if length >= passwordBonusLength {
		report.Score++
	}

	if hasRepeatedRun(password, passwordRepeatRun) {
		report.Score--
		report.Errors = append(report.Errors, "Password must not contain repeated characters")
	}

	report.Score = max(0, min(report.Score, passwordMaxScore))
	return report
}

// hasRepeatedRun reports whether password contains run identical consecutive characters.
func hasRepeatedRun(password string, run int) bool {
	var previous rune
	count := 0
	for index, r := range []rune(password) {
		if index > 0 && r == previous {
			count++
		} else {
			count = 1
		}
		if count >= run {
			return true
		}
		previous = r
	}
	return false
}
