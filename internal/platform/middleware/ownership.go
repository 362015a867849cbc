// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"github.com/taibuivan/bizdesk/internal/platform/sec"
	"github.com/taibuivan/bizdesk/internal/users/identity"
)

// # Ownership Rules

type ownershipKind int

const (
	ownershipSelfOnly ownershipKind = iota
	ownershipAdminOrSelf
	ownershipAdminOrMinRole
)

// OwnershipRule decides who may act on a resource owned by a given account.
type OwnershipRule struct {
	kind    ownershipKind
	minimum sec.Role
}

// SelfOnly admits only the owner. Admins get no bypass.
func SelfOnly() OwnershipRule {
	return OwnershipRule{kind: ownershipSelfOnly}
}

// AdminOrSelf admits the owner and any admin.
func AdminOrSelf() OwnershipRule {
	return OwnershipRule{kind: ownershipAdminOrSelf}
}

// AdminOrMinRole admits the owner, any admin and anyone ranking at or above minimum.
func AdminOrMinRole(minimum sec.Role) OwnershipRule {
	return OwnershipRule{kind: ownershipAdminOrMinRole, minimum: minimum}
}

// Allows reports whether caller may act on the resource owned by ownerID.
func (rule OwnershipRule) Allows(caller *identity.User, ownerID string) bool {
	isOwner := ownerID != "" && caller.ID == ownerID

	switch rule.kind {
	case ownershipSelfOnly:
		return isOwner
	case ownershipAdminOrSelf:
		return isOwner || caller.Role == sec.RoleAdmin
	case ownershipAdminOrMinRole:
		return isOwner || caller.Role == sec.RoleAdmin || sec.HasPermission(caller.Role, rule.minimum)
	default:
		return false
	}
}

// String names the rule for audit entries.
func (rule OwnershipRule) String() string {
	switch rule.kind {
	case ownershipSelfOnly:
		return "self_only"
	case ownershipAdminOrSelf:
		return "admin_or_self"
	case ownershipAdminOrMinRole:
		return "admin_or_min_role:" + string(rule.minimum)
	default:
		return "unknown"
	}
}
