package session

import "errors"

// Session identifies the signed-in user for one workflow call. It is a
// value, not shared mutable state: every workflow receives it from the
// Manager at the start of an operation.
type Session struct {
	UID   string
	Email string
}

var (
	// ErrNotSignedIn is returned when an identity-dependent operation runs
	// without an established session.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrSigningOut is returned to operations started while sign-out is
	// draining in-flight work.
	ErrSigningOut = errors.New("sign-out in progress")
	// ErrAlreadySignedIn is returned when sign-in or sign-up runs with a
	// session still established. The caller signs out first.
	ErrAlreadySignedIn = errors.New("already signed in")
)
