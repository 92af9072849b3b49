package authstate

import (
	"context"
	"slices"
	"sync"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/google/uuid"
)

// IdentityProvider verifies credentials and issues, renews and ends sessions.
type IdentityProvider interface {
	VerifyCredentials(ctx context.Context, email, password string) (*Session, error)
	TerminateSession(ctx context.Context) error
	// CurrentSession returns nil when no session is live.
	CurrentSession(ctx context.Context) (*Session, error)
	// OnSessionChange registers fn for every login, logout and token
	// refresh. fn receives nil when the session ends.
	OnSessionChange(fn func(*Session)) (unsubscribe func())
}

// ProfileStore reads and writes application profiles keyed by identity id.
type ProfileStore interface {
	// GetProfile returns ErrProfileNotFound when no profile exists.
	GetProfile(ctx context.Context, identityID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, identityID uuid.UUID, update models.ProfileUpdate) error
}

// Notifier fans session events out to registered listeners. Providers embed
// it to implement OnSessionChange.
type Notifier struct {
	mu        sync.Mutex
	next      uint64
	listeners map[uint64]func(*Session)
}

func (n *Notifier) OnSessionChange(fn func(*Session)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listeners == nil {
		n.listeners = make(map[uint64]func(*Session))
	}
	n.next++
	id := n.next
	n.listeners[id] = fn

	return func() {
		n.mu.Lock()
		delete(n.listeners, id)
		n.mu.Unlock()
	}
}

// Notify calls every listener in registration order with s.
func (n *Notifier) Notify(s *Session) {
	n.mu.Lock()
	ids := make([]uint64, 0, len(n.listeners))
	for id := range n.listeners {
		ids = append(ids, id)
	}
	fns := make([]func(*Session), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, n.listeners[id])
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
