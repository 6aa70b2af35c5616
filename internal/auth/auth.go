// Package auth wraps the external identity service the client signs in
// against. The provider owns credentials and tokens; this package only
// tracks which identity the process currently acts as.
package auth

import (
	"context"
	"errors"
)

// Identity is the provider-side account the client is signed in as.
type Identity struct {
	UID   string
	Email string
}

var (
	// ErrInvalidCredentials covers bad email/password combinations and
	// already-taken or malformed emails on signup.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrWeakPassword is returned when the provider rejects a signup password.
	ErrWeakPassword = errors.New("weak password")
	// ErrNotSignedIn is returned by identity-dependent calls without a session.
	ErrNotSignedIn = errors.New("not signed in")
)

// Provider is the contract of the external identity service.
type Provider interface {
	// SignUp creates a new account and signs the client in as it.
	SignUp(ctx context.Context, email, password string) (Identity, error)
	// SignIn authenticates an existing account.
	SignIn(ctx context.Context, email, password string) (Identity, error)
	// SignOut drops the current identity. Local only, never fails.
	SignOut()
	// Reauthenticate re-checks the current identity's password.
	Reauthenticate(ctx context.Context, currentPassword string) error
	// UpdatePassword replaces the current identity's password.
	UpdatePassword(ctx context.Context, newPassword string) error
	// Current returns the active identity, if any.
	Current() (Identity, bool)
}
