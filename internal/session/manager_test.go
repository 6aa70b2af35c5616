package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boosthub/boosthub/internal/auth"
	"github.com/boosthub/boosthub/internal/status"
	"go.uber.org/zap"
)

type fakeProvider struct {
	mu       sync.Mutex
	identity auth.Identity
	signedIn bool
}

func (f *fakeProvider) SignUp(_ context.Context, email, password string) (auth.Identity, error) {
	if len(password) < 6 {
		return auth.Identity{}, auth.ErrWeakPassword
	}
	return f.establish(email), nil
}

func (f *fakeProvider) SignIn(_ context.Context, email, password string) (auth.Identity, error) {
	if password == "wrong" {
		return auth.Identity{}, auth.ErrInvalidCredentials
	}
	return f.establish(email), nil
}

func (f *fakeProvider) establish(email string) auth.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identity = auth.Identity{UID: "uid-" + email, Email: email}
	f.signedIn = true
	return f.identity
}

func (f *fakeProvider) SignOut() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signedIn = false
}

func (f *fakeProvider) Reauthenticate(context.Context, string) error { return nil }
func (f *fakeProvider) UpdatePassword(context.Context, string) error { return nil }

func (f *fakeProvider) Current() (auth.Identity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.signedIn {
		return auth.Identity{}, false
	}
	return f.identity, true
}

func testManager(t *testing.T) (*Manager, *fakeProvider) {
	t.Helper()
	p := &fakeProvider{}
	return NewManager(p, status.NewMachine(nil), zap.NewNop()), p
}

func TestCurrentNotSignedIn(t *testing.T) {
	m, _ := testManager(t)
	if _, err := m.Current(); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("Current() error = %v, want ErrNotSignedIn", err)
	}
}

func TestSignInEstablishesSession(t *testing.T) {
	m, _ := testManager(t)
	sess, err := m.SignIn(context.Background(), "a@x.com", "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if sess.UID != "uid-a@x.com" || sess.Email != "a@x.com" {
		t.Errorf("session = %+v", sess)
	}

	got, err := m.Current()
	if err != nil || got != sess {
		t.Errorf("Current() = %+v, %v, want the signed-in session", got, err)
	}
}

func TestSignInFailureLeavesSignedOut(t *testing.T) {
	m, _ := testManager(t)
	if _, err := m.SignIn(context.Background(), "a@x.com", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("SignIn() error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := m.Current(); !errors.Is(err, ErrNotSignedIn) {
		t.Error("failed sign-in must not establish a session")
	}
	// The machine must allow another attempt.
	if _, err := m.SignIn(context.Background(), "a@x.com", "abc123"); err != nil {
		t.Errorf("retry after failure: %v", err)
	}
}

func TestBeginWithoutSession(t *testing.T) {
	m, _ := testManager(t)
	if _, _, err := m.Begin(); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("Begin() error = %v, want ErrNotSignedIn", err)
	}
}

func TestSignOutDrainsInFlightOperations(t *testing.T) {
	m, p := testManager(t)
	if _, err := m.SignUp(context.Background(), "a@x.com", "abc123"); err != nil {
		t.Fatal(err)
	}

	_, done, err := m.Begin()
	if err != nil {
		t.Fatal(err)
	}

	signedOut := make(chan struct{})
	go func() {
		m.SignOut()
		close(signedOut)
	}()

	// SignOut must wait for the in-flight operation.
	select {
	case <-signedOut:
		t.Fatal("SignOut returned while an operation was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	if _, ok := p.Current(); !ok {
		t.Fatal("identity dropped before the in-flight operation finished")
	}

	done()
	select {
	case <-signedOut:
	case <-time.After(time.Second):
		t.Fatal("SignOut did not complete after the operation finished")
	}
	if _, ok := p.Current(); ok {
		t.Error("identity still present after SignOut")
	}
}

func TestBeginRejectedWhileDraining(t *testing.T) {
	m, _ := testManager(t)
	if _, err := m.SignUp(context.Background(), "a@x.com", "abc123"); err != nil {
		t.Fatal(err)
	}

	_, done, err := m.Begin()
	if err != nil {
		t.Fatal(err)
	}

	signedOut := make(chan struct{})
	go func() {
		m.SignOut()
		close(signedOut)
	}()

	// Wait until the drain flag is up, then new operations must be refused.
	deadline := time.After(time.Second)
	for {
		_, opDone, err := m.Begin()
		if errors.Is(err, ErrSigningOut) {
			break
		}
		if err == nil {
			opDone()
		}
		select {
		case <-deadline:
			t.Fatal("Begin() was never rejected during sign-out")
		case <-time.After(5 * time.Millisecond):
		}
	}

	done()
	<-signedOut
}

func TestSignInWhileSignedInRejected(t *testing.T) {
	m, p := testManager(t)
	if _, err := m.SignIn(context.Background(), "a@x.com", "abc123"); err != nil {
		t.Fatal(err)
	}

	if _, err := m.SignIn(context.Background(), "b@x.com", "abc123"); !errors.Is(err, ErrAlreadySignedIn) {
		t.Fatalf("second SignIn() error = %v, want ErrAlreadySignedIn", err)
	}
	if _, err := m.SignUp(context.Background(), "b@x.com", "abc123"); !errors.Is(err, ErrAlreadySignedIn) {
		t.Fatalf("SignUp() while signed in error = %v, want ErrAlreadySignedIn", err)
	}

	// The established identity must be untouched.
	if id, ok := p.Current(); !ok || id.Email != "a@x.com" {
		t.Errorf("identity = %+v, %v, want the original session", id, ok)
	}
}

func TestRestoredIdentitySyncsMachine(t *testing.T) {
	// A provider already holding an identity models a process that
	// restored its persisted session state.
	p := &fakeProvider{}
	p.establish("a@x.com")
	m := NewManager(p, status.NewMachine(nil), zap.NewNop())

	if _, err := m.Current(); err != nil {
		t.Fatalf("Current() after restore: %v", err)
	}
	if _, err := m.SignIn(context.Background(), "b@x.com", "abc123"); !errors.Is(err, ErrAlreadySignedIn) {
		t.Errorf("SignIn() after restore error = %v, want ErrAlreadySignedIn", err)
	}

	// The full lifecycle must still work from the restored state.
	m.SignOut()
	if _, err := m.SignIn(context.Background(), "b@x.com", "abc123"); err != nil {
		t.Errorf("SignIn() after restored sign-out: %v", err)
	}
}

func TestSignOutWithoutSessionIsNoop(t *testing.T) {
	m, _ := testManager(t)
	// Must return immediately and not panic on the state machine.
	m.SignOut()
}

func TestDoneIsIdempotent(t *testing.T) {
	m, _ := testManager(t)
	if _, err := m.SignUp(context.Background(), "a@x.com", "abc123"); err != nil {
		t.Fatal(err)
	}
	_, done, err := m.Begin()
	if err != nil {
		t.Fatal(err)
	}
	done()
	done() // second call must not panic the WaitGroup
	m.SignOut()
}
