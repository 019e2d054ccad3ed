// internal/app/system/authsvc/authsvc.go

// Package authsvc is the authentication service boundary: credential
// verification, account creation, sign-out, and the auth-state stream that
// the session store synchronizes against.
//
// The stream contract matters more than the CRUD: OnStateChange fires the
// callback once immediately with the current principal for the session (nil
// when signed out), then again on every subsequent change. The navigation
// gate's correctness depends on that immediate first fire, so it is part of
// the interface, not an implementation detail.
package authsvc

import (
	"context"

	"github.com/tewell/reelhub/internal/domain/models"
)

// CancelFunc unsubscribes a state-change callback. Safe to call more than
// once.
type CancelFunc func()

// Service is the external auth boundary. A logical auth session is
// identified by an opaque session id (one per browser session); all
// operations act on that session's signed-in state.
type Service interface {
	// SignIn verifies credentials and signs the session in as that account.
	SignIn(ctx context.Context, sessionID, email, password string) (models.Principal, error)

	// SignUp creates a password account and signs the session in as it.
	SignUp(ctx context.Context, sessionID, email, password string) (models.Principal, error)

	// SignInExternal signs the session in as a federated account (created on
	// first use). provider names the identity provider, e.g. "google".
	SignInExternal(ctx context.Context, sessionID, email, provider string) (models.Principal, error)

	// SignOut signs the session out. Signing out a session that is already
	// signed out is not an error.
	SignOut(ctx context.Context, sessionID string) error

	// OnStateChange subscribes fn to the session's auth-state stream. fn is
	// called once synchronously with the current principal before
	// OnStateChange returns, then on every later change for that session.
	OnStateChange(ctx context.Context, sessionID string, fn func(*models.Principal)) CancelFunc
}
