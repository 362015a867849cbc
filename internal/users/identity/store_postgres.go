// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/bizdesk/internal/platform/database/schema"
	"github.com/taibuivan/bizdesk/internal/platform/dberr"
	"github.com/taibuivan/bizdesk/pkg/uuid"
)

// userColumns is the projection shared by every query returning a [User].
var userColumns = strings.Join(schema.UserAccount.Columns(), ", ")

// # User Repository

// PostgresStore implements [Repository] on the users.account table using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the [Repository].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
FindByID retrieves an account by its unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: ErrNotFound or execution errors
*/
func (store *PostgresStore) FindByID(context context.Context, id string) (*User, error) {
	// The id column is a uuid; malformed input can never match.
	if !uuid.IsValid(id) {
		return nil, ErrNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users.account WHERE id = $1`

	user, err := scanUser(store.pool.QueryRow(context, query, id))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres_identity_find_by_id_failed: %w", err)
	}
	return user, nil
}

/*
FindByEmail retrieves an account by its normalized email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: ErrNotFound or execution errors
*/
func (store *PostgresStore) FindByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE email = $1`

	user, err := scanUser(store.pool.QueryRow(context, query, email))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres_identity_find_by_email_failed: %w", err)
	}
	return user, nil
}

/*
Create inserts a new active account.

Description: Assigns a UUIDv7 and timestamps, and maps the unique index on
email to [ErrEmailTaken].

Parameters:
  - context: context.Context
  - input: NewUser

Returns:
  - *User: The stored entity
  - error: ErrEmailTaken or execution errors
*/
func (store *PostgresStore) Create(context context.Context, input NewUser) (*User, error) {
	query := `
		INSERT INTO users.account (
			id, email, passwordhash, displayname, role, isactive, isverified,
			failedattempts, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, TRUE, FALSE, 0, $6, $6)
		RETURNING ` + userColumns

	now := time.Now().UTC()
	user, err := scanUser(store.pool.QueryRow(context, query,
		uuid.New(),
		input.Email,
		input.PasswordHash,
		input.DisplayName,
		input.Role,
		now,
	))
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("postgres_identity_create_failed: %w", err)
	}
	return user, nil
}

/*
Update applies a partial change in a single statement.

Description: Only the fields set on the patch appear in the SET clause;
updatedat is always refreshed.

Parameters:
  - context: context.Context
  - id: string
  - patch: Patch

Returns:
  - *User: The row after the update
  - error: ErrNotFound or execution errors
*/
func (store *PostgresStore) Update(context context.Context, id string, patch Patch) (*User, error) {
	if patch.IsEmpty() || !uuid.IsValid(id) {
		return store.FindByID(context, id)
	}

	assignments, arguments := patchAssignments(patch)
	arguments = append(arguments, time.Now().UTC(), id)
	assignments = append(assignments, fmt.Sprintf("updatedat = $%d", len(arguments)-1))

	query := fmt.Sprintf(`UPDATE users.account SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(assignments, ", "), len(arguments), userColumns)

	user, err := scanUser(store.pool.QueryRow(context, query, arguments...))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres_identity_update_failed: %w", err)
	}
	return user, nil
}

// patchAssignments renders the SET fragments of a patch with positional arguments.
func patchAssignments(patch Patch) ([]string, []any) {
	var assignments []string
	var arguments []any

	set := func(column string, value any) {
		arguments = append(arguments, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(arguments)))
	}

	if patch.PasswordHash != nil {
		set(schema.UserAccount.Password, *patch.PasswordHash)
	}
	if patch.DisplayName != nil {
		set(schema.UserAccount.DisplayName, *patch.DisplayName)
	}
	if patch.Role != nil {
		set(schema.UserAccount.Role, *patch.Role)
	}
	if patch.IsActive != nil {
		set(schema.UserAccount.IsActive, *patch.IsActive)
	}
	if patch.IsVerified != nil {
		set(schema.UserAccount.IsVerified, *patch.IsVerified)
	}
	if patch.FailedAttempts != nil {
		set(schema.UserAccount.FailedAttempts, *patch.FailedAttempts)
	}
	switch {
	case patch.LockUntil != nil:
		set(schema.UserAccount.LockUntil, *patch.LockUntil)
	case patch.ClearLockUntil:
		assignments = append(assignments, schema.UserAccount.LockUntil+" = NULL")
	}
	if patch.LastLoginAt != nil {
		set(schema.UserAccount.LastLoginAt, *patch.LastLoginAt)
	}

	return assignments, arguments
}

// scanUser hydrates a [User] from a row selected with userColumns.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.IsActive,
		&user.IsVerified,
		&user.FailedAttempts,
		&user.LockUntil,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
