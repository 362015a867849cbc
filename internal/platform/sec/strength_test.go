// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/bizdesk/internal/platform/sec"
)

/*
TestValidatePasswordStrength walks the policy through representative passwords.
*/
func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		isValid    bool
		score      int
		errorCount int
	}{
		// upper, lower, digit, symbol, length >= 12 -> 5
		{"strong", "Str0ng!Passw0rd", true, 5, 0},
		// four classes, no length bonus -> 4
		{"valid_no_bonus", "Str0ng!P", true, 4, 0},
		// too short, four classes -> still scored
		{"too_short", "Sh0rt!", false, 4, 1},
		// lower +1, digit +1, no upper -1, no symbol -1, length bonus +1
		{"long_missing_classes", "averylongpasswordwithoutanything123", true, 1, 2},
		// four classes -1 for the aaa run
		{"repeated_run", "Paaa55word!", true, 3, 1},
		{"empty", "", false, 0, 5},
		{"too_long", strings.Repeat("Ab1!", 33), false, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := sec.ValidatePasswordStrength(tt.password)

			assert.Equal(t, tt.isValid, report.IsValid)
			assert.Equal(t, tt.score, report.Score)
			assert.Len(t, report.Errors, tt.errorCount)
		})
	}
}

/*
TestValidatePasswordStrength_OnlyLengthGatesValidity ensures character class failures stay advisory.
*/
func TestValidatePasswordStrength_OnlyLengthGatesValidity(t *testing.T) {
	report := sec.ValidatePasswordStrength("aaaaaaaa")

	assert.True(t, report.IsValid)
	assert.Equal(t, 0, report.Score)
	assert.Contains(t, report.Errors, "Password must contain at least one uppercase letter")
	assert.Contains(t, report.Errors, "Password must not contain repeated characters")
}

/*
TestValidatePasswordStrength_ScoreBounds checks the clamp on both ends.
*/
func TestValidatePasswordStrength_ScoreBounds(t *testing.T) {
	for _, password := range []string{"", "aaa", "Str0ng!Passw0rd", "!!!!", strings.Repeat("x", 200)} {
		report := sec.ValidatePasswordStrength(password)
		assert.GreaterOrEqual(t, report.Score, 0)
		assert.LessOrEqual(t, report.Score, 5)
	}
}

/*
TestValidatePasswordStrength_LengthInCharacters counts runes, not bytes.
*/
func TestValidatePasswordStrength_LengthInCharacters(t *testing.T) {
	// 8 characters, 16 bytes
	report := sec.ValidatePasswordStrength("ÄäÖöÜü1!")
	assert.True(t, report.IsValid)
}
