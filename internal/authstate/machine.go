package authstate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
)

// Machine is the single writer of AuthState.
//
// Sessions become Authenticated only through the provider's session-change
// notifications; Login merely asks the provider to verify credentials. Every
// commit replaces the whole state under one lock, so readers never observe a
// half-applied transition.
type Machine struct {
	provider IdentityProvider
	profiles ProfileStore
	resolver *ProfileResolver
	logger   *log.Logger
	now      func() time.Time

	// notifyMu keeps listener delivery in commit order.
	notifyMu sync.Mutex

	mu           sync.Mutex
	state        AuthState
	seq          uint64
	started      bool
	closed       bool
	listeners    map[uint64]func(AuthState)
	nextListener uint64
	unsubscribe  func()

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Machine)

func WithLogger(logger *log.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock injects the time source used for fallback profiles and
// updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMachine(provider IdentityProvider, profiles ProfileStore, opts ...Option) *Machine {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		provider:  provider,
		profiles:  profiles,
		logger:    log.Default(),
		now:       time.Now,
		state:     AuthState{IsLoading: true},
		listeners: make(map[uint64]func(AuthState)),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.resolver = NewProfileResolver(profiles, m.now, m.logger)
	return m
}

// Start subscribes to session changes and then resolves the current
// session. The subscription comes first so no transition between the two
// steps is lost. Start returns once the bootstrap state is committed.
func (m *Machine) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.closed {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	unsubscribe := m.provider.OnSessionChange(m.handleSessionChange)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		unsubscribe()
		return
	}
	m.unsubscribe = unsubscribe
	m.mu.Unlock()

	session, err := m.provider.CurrentSession(ctx)
	if err != nil {
		m.logger.Printf("auth: session bootstrap failed: %v", err)
		session = nil
	}
	m.apply(ctx, session)
}

// Close unsubscribes from the provider and drops every listener. Requests
// still in flight complete but their results are discarded.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.listeners = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	m.cancel()
}

// State returns a snapshot of the current state.
func (m *Machine) State() AuthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Subscribe registers fn to receive every committed state. fn must not call
// Login, Logout or UpdateUser synchronously.
func (m *Machine) Subscribe(fn func(AuthState)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return func() {}
	}
	m.nextListener++
	id := m.nextListener
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Settled blocks until the state is no longer loading.
func (m *Machine) Settled(ctx context.Context) (AuthState, error) {
	ch := make(chan AuthState, 1)
	unsubscribe := m.Subscribe(func(s AuthState) {
		if s.IsLoading {
			return
		}
		select {
		case ch <- s:
		default:
		}
	})
	defer unsubscribe()

	if s := m.State(); !s.IsLoading {
		return s, nil
	}
	select {
	case s := <-ch:
		return s, nil
	case <-ctx.Done():
		return m.State(), ctx.Err()
	}
}

// Login asks the provider to verify credentials. On success the provider's
// session notification commits the authenticated state; on failure the
// state is cleared and an ErrInvalidCredentials error is returned.
func (m *Machine) Login(ctx context.Context, email, password string) error {
	m.mutate(func(s AuthState) (AuthState, bool) {
		s.IsLoading = true
		return s, true
	})

	if _, err := m.provider.VerifyCredentials(ctx, email, password); err != nil {
		m.commitAt(m.bump(), AuthState{})
		if errors.Is(err, ErrInvalidCredentials) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	return nil
}

// Logout ends the remote session and clears local state whatever the
// provider answers.
func (m *Machine) Logout(ctx context.Context) error {
	err := m.provider.TerminateSession(ctx)
	m.commitAt(m.bump(), AuthState{})
	if err != nil {
		m.logger.Printf("auth: %v: %v", ErrSessionTerminationFailed, err)
	}
	return nil
}

// UpdateUser persists update and, only once the store accepted it, merges it
// into the in-memory user.
func (m *Machine) UpdateUser(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	current := m.State()
	if !current.IsAuthenticated || current.User == nil {
		return nil, ErrNotAuthenticated
	}
	userID := current.User.ID

	session, err := m.provider.CurrentSession(ctx)
	if err != nil || !session.Valid() || session.Identity.ID != userID {
		return nil, ErrNotAuthenticated
	}

	if err := m.profiles.UpdateProfile(ctx, userID, update); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProfileUpdateFailed, err)
	}

	var merged *models.User
	m.mutate(func(s AuthState) (AuthState, bool) {
		if s.User == nil || s.User.ID != userID {
			return s, false
		}
		u := s.User.Clone()
		update.Apply(u)
		u.UpdatedAt = m.now().UTC()
		merged = u
		s.User = u
		return s, true
	})
	if merged == nil {
		return nil, ErrNotAuthenticated
	}
	return merged.Clone(), nil
}

func (m *Machine) handleSessionChange(session *Session) {
	m.apply(m.ctx, session)
}

func (m *Machine) apply(ctx context.Context, session *Session) {
	seq := m.bump()
	if !session.Valid() {
		m.commitAt(seq, AuthState{})
		return
	}
	user := m.resolver.Resolve(ctx, session.Identity)
	m.commitAt(seq, AuthState{User: user, IsAuthenticated: true})
}

func (m *Machine) bump() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq
}

// commitAt replaces the state unless a newer event has been sequenced since
// seq was taken.
func (m *Machine) commitAt(seq uint64, next AuthState) {
	m.mutate(func(AuthState) (AuthState, bool) {
		return next, m.seq == seq
	})
}

// mutate runs fn on the current state under the lock and, if fn accepts,
// commits and notifies listeners. fn runs with m.mu held.
func (m *Machine) mutate(fn func(AuthState) (AuthState, bool)) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	next, ok := fn(m.state)
	if !ok {
		m.mu.Unlock()
		return
	}
	m.state = next
	ids := make([]uint64, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]func(AuthState), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, m.listeners[id])
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(next.clone())
	}
}
