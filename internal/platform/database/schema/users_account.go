// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns shared by SQL queries and migrations.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table          string
	ID             string
	Email          string
	Password       string
	DisplayName    string
	Role           string
	IsActive       string
	IsVerified     string
	FailedAttempts string
	LockUntil      string
	LastLoginAt    string
	CreatedAt      string
	UpdatedAt      string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:          "users.account",
	ID:             "id",
	Email:          "email",
	Password:       "passwordhash",
	DisplayName:    "displayname",
	Role:           "role",
	IsActive:       "isactive",
	IsVerified:     "isverified",
	FailedAttempts: "failedattempts",
	LockUntil:      "lockuntil",
	LastLoginAt:    "lastloginat",
	CreatedAt:      "createdat",
	UpdatedAt:      "updatedat",
}

// Columns returns all standard column names in scan order
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.DisplayName, t.Role, t.IsActive,
		t.IsVerified, t.FailedAttempts, t.LockUntil, t.LastLoginAt,
		t.CreatedAt, t.UpdatedAt,
	}
}
