// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package normalize canonicalises user-supplied identifiers before they are
// stored or compared.
//
// # Usage
//
// Emails are the login key of an account, so "Jane@Example.com " and
// "jane@example.com" must resolve to the same identity. This package handles
// Unicode normalization, case folding and whitespace trimming.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Email converts an email address into its canonical comparison form.
//
// # Transformation Pipeline
//
// 1. Trims surrounding whitespace.
// 2. Removes zero-width and other format characters (copy/paste artefacts).
// 3. Normalizes to NFC so composed and decomposed forms collapse.
// 4. Applies Unicode case folding.
func Email(s string) string {
	// 1. Trim
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// 2. + 3. Strip format runes and compose
	t := transform.Chain(transform.RemoveFunc(isFormat), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	// 4. Case fold
	return cases.Fold().String(result)
}

// isFormat reports whether r is an invisible Unicode format character (e.g., U+200B).
func isFormat(r rune) bool {
	return unicode.Is(unicode.Cf, r)
}
