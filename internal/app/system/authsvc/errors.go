// internal/app/system/authsvc/errors.go
package authsvc

import (
	"errors"
	"fmt"
)

// Provider-style error codes, surfaced to callers unchanged so the UI can
// map them to messages.
const (
	CodeInvalidCredential = "auth/invalid-credential"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeWeakPassword      = "auth/weak-password"
	CodeUserDisabled      = "auth/user-disabled"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeInternal          = "auth/internal-error"
)

// AuthError is a failure from the auth service, carrying its provider code.
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewError wraps err under a provider code.
func NewError(code string, err error) *AuthError {
	return &AuthError{Code: code, Err: err}
}

// ErrCode extracts the provider code from err, or "" if err is not an
// AuthError.
func ErrCode(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsCode reports whether err is an AuthError with the given code.
func IsCode(err error, code string) bool {
	return ErrCode(err) == code
}
