// internal/app/system/authutil/authutil.go

// Package authutil handles password hashing and password policy for the
// auth service's password accounts.
package authutil

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// bcryptCost is the work factor for new hashes. Existing hashes verify at
// whatever cost they were created with.
const bcryptCost = 12

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ErrWeakPassword is returned by ValidatePassword when the password does
// not meet the policy.
var ErrWeakPassword = errors.New("password does not meet requirements")

// ValidatePassword enforces the password policy for new accounts.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, MinPasswordLength)
	}
	// bcrypt silently truncates beyond 72 bytes; reject instead of truncating.
	if len(password) > 72 {
		return fmt.Errorf("%w: must be at most 72 characters", ErrWeakPassword)
	}
	return nil
}

// PasswordRules is the human-readable form of the policy, for UI display.
func PasswordRules() string {
	return fmt.Sprintf("Password must be %d to 72 characters.", MinPasswordLength)
}
