// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// Full administrative access, bypasses ownership checks
	RoleAdmin Role = "admin"

	// Can review the accounts and lockout state of their reports
	RoleManager Role = "manager"

	// Default role for registered staff
	RoleEmployee Role = "employee"
)

// roleLevels is the permission hierarchy. Roles absent from the table rank 0.
var roleLevels = map[Role]int{
	RoleEmployee: 1,
	RoleManager:  2,
	RoleAdmin:    3,
}

// # Role Hierarchy

// Level returns the numeric hierarchy level of the role, or 0 for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// IsValid reports whether the role is part of the hierarchy.
func (r Role) IsValid() bool {
	return r.Level() > 0
}

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return HasPermission(r, target)
}

// # Permission Evaluation

// HasRole reports whether actual is exactly one of the allowed roles.
func HasRole(actual Role, allowed ...Role) bool {
	for _, role := range allowed {
		if actual == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether actual ranks at or above minimum.
// An unknown actual role never passes.
func HasPermission(actual, minimum Role) bool {
	level := actual.Level()
	return level > 0 && level >= minimum.Level()
}
