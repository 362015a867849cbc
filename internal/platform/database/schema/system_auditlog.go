// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SystemAuditLogTable represents the 'system.auditlog' table
type SystemAuditLogTable struct {
	Table      string
	ID         string
	ActorID    string
	ActorEmail string
	ActorRole  string
	Action     string
	Metadata   string
	IPAddress  string
	UserAgent  string
	RequestID  string
	CreatedAt  string
}

var SystemAuditLog = SystemAuditLogTable{
	Table:      "system.auditlog",
	ID:         "id",
	ActorID:    "actorid",
	ActorEmail: "actoremail",
	ActorRole:  "actorrole",
	Action:     "action",
	Metadata:   "metadata",
	IPAddress:  "ipaddress",
	UserAgent:  "useragent",
	RequestID:  "requestid",
	CreatedAt:  "createdat",
}

// Columns returns the insert order used by the audit sink
func (t SystemAuditLogTable) Columns() []string {
	return []string{
		t.ID, t.ActorID, t.ActorEmail, t.ActorRole, t.Action, t.Metadata,
		t.IPAddress, t.UserAgent, t.RequestID, t.CreatedAt,
	}
}
