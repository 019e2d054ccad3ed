// internal/app/system/normalize/normalize.go

// Package normalize holds the canonical forms for user-entered identifiers.
// Every write path and every lookup must agree on these, otherwise
// case-variant emails produce duplicate accounts.
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email case-folds and trims an email address.
func Email(s string) string {
	return text.Fold(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}
