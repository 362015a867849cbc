// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import "context"

// # User Data Access

// Repository defines the data access contract for staff accounts.
//
// Emails passed in must already be normalized. Every method returns
// [ErrNotFound] when the account does not exist.
type Repository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: ErrNotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given normalized email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: ErrNotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new active account.

		Parameters:
		  - context: context.Context
		  - input: NewUser

		Returns:
		  - *User: The stored entity with ID and timestamps assigned
		  - error: ErrEmailTaken or storage failures
	*/
	Create(context context.Context, input NewUser) (*User, error)

	/*
		Update applies a partial change and returns the stored result.

		Parameters:
		  - context: context.Context
		  - id: string
		  - patch: Patch

		Returns:
		  - *User: The entity after the update
		  - error: ErrNotFound or storage failures
	*/
	Update(context context.Context, id string, patch Patch) (*User, error)
}
