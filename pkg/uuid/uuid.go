// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates the time-ordered identifiers used for accounts and
audit entries.

Version 7 values sort by creation time, which keeps PostgreSQL B-tree indexes
compact under insert-heavy workloads such as the audit log.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}
	return id.String()
}

// # Validation

// IsValid reports whether value is a canonical hyphenated UUID of any version.
func IsValid(value string) bool {
	if len(value) != 36 {
		return false
	}
	return uuid.Validate(value) == nil
}
