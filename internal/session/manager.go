package session

import (
	"context"
	"sync"

	"github.com/boosthub/boosthub/internal/auth"
	"github.com/boosthub/boosthub/internal/status"
	"go.uber.org/zap"
)

// Manager guards the process-wide identity. Workflows register through
// Begin so that SignOut can drain in-flight identity-dependent writes
// before the identity goes away.
type Manager struct {
	provider auth.Provider
	machine  *status.Machine
	logger   *zap.Logger

	mu       sync.Mutex
	draining bool
	ops      sync.WaitGroup
}

// NewManager creates a session manager on top of the auth provider. A
// provider holding a restored identity starts the machine in Ready.
func NewManager(provider auth.Provider, machine *status.Machine, logger *zap.Logger) *Manager {
	m := &Manager{provider: provider, machine: machine, logger: logger}
	if _, ok := provider.Current(); ok {
		_ = m.machine.Transition(status.Authenticating)
		_ = m.machine.Transition(status.Ready)
	}
	return m
}

// Current returns the active session without registering an operation.
func (m *Manager) Current() (Session, error) {
	id, ok := m.provider.Current()
	if !ok {
		return Session{}, ErrNotSignedIn
	}
	return Session{UID: id.UID, Email: id.Email}, nil
}

// Begin registers an identity-dependent operation. The returned done func
// must be called when the operation finishes, regardless of outcome.
func (m *Manager) Begin() (Session, func(), error) {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return Session{}, nil, ErrSigningOut
	}
	id, ok := m.provider.Current()
	if !ok {
		m.mu.Unlock()
		return Session{}, nil, ErrNotSignedIn
	}
	m.ops.Add(1)
	m.mu.Unlock()

	var once sync.Once
	done := func() { once.Do(m.ops.Done) }
	return Session{UID: id.UID, Email: id.Email}, done, nil
}

// SignIn authenticates against the provider and moves the machine to Ready.
// A sign-in while a session is established is rejected; the identity is
// never replaced behind the machine's back.
func (m *Manager) SignIn(ctx context.Context, email, password string) (Session, error) {
	if err := m.machine.Transition(status.Authenticating); err != nil {
		return Session{}, ErrAlreadySignedIn
	}
	id, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		_ = m.machine.Transition(status.SignedOut)
		return Session{}, err
	}
	_ = m.machine.Transition(status.Ready)
	m.logger.Info("signed in", zap.String("uid", id.UID))
	return Session{UID: id.UID, Email: id.Email}, nil
}

// SignUp creates a new account and moves the machine to Ready. Rejected
// while a session is established, like SignIn.
func (m *Manager) SignUp(ctx context.Context, email, password string) (Session, error) {
	if err := m.machine.Transition(status.Authenticating); err != nil {
		return Session{}, ErrAlreadySignedIn
	}
	id, err := m.provider.SignUp(ctx, email, password)
	if err != nil {
		_ = m.machine.Transition(status.SignedOut)
		return Session{}, err
	}
	_ = m.machine.Transition(status.Ready)
	m.logger.Info("signed up", zap.String("uid", id.UID))
	return Session{UID: id.UID, Email: id.Email}, nil
}

// SignOut blocks new operations, waits for in-flight ones to finish, then
// drops the identity. A sign-out with no active session is a no-op.
func (m *Manager) SignOut() {
	m.mu.Lock()
	if _, ok := m.provider.Current(); !ok {
		m.mu.Unlock()
		return
	}
	m.draining = true
	m.mu.Unlock()

	_ = m.machine.Transition(status.SigningOut)
	m.ops.Wait()
	m.provider.SignOut()
	_ = m.machine.Transition(status.SignedOut)

	m.mu.Lock()
	m.draining = false
	m.mu.Unlock()
	m.logger.Info("signed out")
}
