// internal/app/store/storage/storage.go

// Package storage defines the generic failure type shared by the document
// store repositories. Repository operations log the underlying cause and
// surface it wrapped in an Error, so callers see a uniform "storage failed"
// condition instead of driver-specific errors.
package storage

import (
	"errors"
	"fmt"
)

// Error wraps any repository I/O failure (network, permission, write
// conflict) under the operation that hit it.
type Error struct {
	Op  string // e.g. "profiles.create"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns err wrapped as a storage Error. It returns nil for a nil err
// so call sites can wrap unconditionally.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Is reports whether err is (or wraps) a storage Error.
func Is(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
