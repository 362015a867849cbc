// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor applied to stored credentials.
const DefaultPasswordCost = 12

// bcryptInputLimit is the number of input bytes bcrypt actually consumes.
const bcryptInputLimit = 72

// PasswordHasher hashes and verifies credentials with bcrypt.
//
// It holds no state besides the cost factor and is safe for concurrent use.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using the given bcrypt cost.
// A zero cost selects [DefaultPasswordCost]; values outside bcrypt's bounds are clamped.
func NewPasswordHasher(cost int) *PasswordHasher {
	switch {
	case cost == 0:
		cost = DefaultPasswordCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

// Cost returns the configured bcrypt work factor.
func (hasher *PasswordHasher) Cost() int { return hasher.cost }

/*
Hash derives a salted bcrypt hash from a plain-text password.

Two calls with the same input produce different outputs because bcrypt
generates a fresh salt each time.

Parameters:
  - plainTextPassword: string

Returns:
  - string: The encoded hash (algorithm, cost and salt included)
  - error: Only if bcrypt itself fails
*/
func (hasher *PasswordHasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword(bcryptInput(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

/*
Verify reports whether plainTextPassword matches existingHash.

A malformed or empty hash is reported as a mismatch, never as an error.
*/
func (hasher *PasswordHasher) Verify(plainTextPassword, existingHash string) bool {
	if existingHash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), bcryptInput(plainTextPassword))
	return err == nil
}

// bcryptInput keeps passwords longer than bcrypt's input limit verifiable by
// substituting their SHA-256 digest.
func bcryptInput(plainTextPassword string) []byte {
	if len(plainTextPassword) <= bcryptInputLimit {
		return []byte(plainTextPassword)
	}
	digest := sha256.Sum256([]byte(plainTextPassword))
	return []byte(base64.StdEncoding.EncodeToString(digest[:]))
}
