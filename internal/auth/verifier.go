// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NickGate Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	// Verify returns (true, nil) on match, (false, nil) on mismatch, or an
	// error when the stored hash cannot be interpreted at all.
	Verify(password, encodedHash string) (bool, error)
}

// BcryptVerifier implements PasswordVerifier using bcrypt.
//
// The comparison is constant-time over the digest length; the match/no-match
// result is the only timing-observable signal.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a new BcryptVerifier.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Verify recomputes the hash of password using the scheme, cost, and salt
// embedded in encodedHash and compares the digests.
func (v *BcryptVerifier) Verify(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	// Anything else means the stored hash itself is unusable: wrong prefix,
	// truncated, impossible cost, or an empty string.
	return false, oops.Code("AUTH_INVALID_HASH").
		With("operation", "compare bcrypt hash").
		Wrap(err)
}

// Compile-time interface check.
var _ PasswordVerifier = (*BcryptVerifier)(nil)
