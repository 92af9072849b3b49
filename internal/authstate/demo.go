package authstate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/google/uuid"
)

const DefaultDemoPassword = "demo123"

var demoNamespace = uuid.MustParse("6f1c2d4e-8a3b-4c5d-9e7f-0a1b2c3d4e5f")

const (
	demoAdminAvatar    = "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=100&h=100&fit=crop&crop=face"
	demoLeaderAvatar   = "https://images.unsplash.com/photo-1494790108755-2616b612b5c8?w=100&h=100&fit=crop&crop=face"
	demoEmployeeAvatar = "https://images.unsplash.com/photo-1535713875002-d1d0cf377fde?w=100&h=100&fit=crop&crop=face"
)

// DemoProvider signs users in without a backend. The signed-in user is kept
// under DemoUserKey in a SessionStore, written on every successful login and
// cleared on logout.
type DemoProvider struct {
	Notifier

	store    SessionStore
	password string
	now      func() time.Time
	mu       sync.Mutex
}

func NewDemoProvider(store SessionStore, password string) *DemoProvider {
	if password == "" {
		password = DefaultDemoPassword
	}
	return &DemoProvider{store: store, password: password, now: time.Now}
}

// DemoUser returns the fixture user for an email address.
func DemoUser(email string, now time.Time) *models.User {
	email = strings.ToLower(strings.TrimSpace(email))
	now = now.UTC()
	user := &models.User{
		ID:        uuid.NewSHA1(demoNamespace, []byte(email)),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	avatar := demoEmployeeAvatar
	switch email {
	case "admin@aiden.ai":
		user.Name = "Super Admin"
		user.Role = models.RoleSuperAdmin
		avatar = demoAdminAvatar
	case "leader@aiden.ai":
		user.Name = "UX/UI Lead"
		user.Role = models.RoleLeadership
		avatar = demoLeaderAvatar
	default:
		user.Name = "UX Designer"
		user.Role = models.RoleEmployee
	}
	user.AvatarURL = &avatar
	return user
}

func (p *DemoProvider) VerifyCredentials(ctx context.Context, email, password string) (*Session, error) {
	if !strings.Contains(email, "@") || password != p.password {
		p.drop()
		return nil, ErrInvalidCredentials
	}

	p.mu.Lock()
	user := DemoUser(email, p.now())
	err := p.store.Save(DemoUserKey, user)
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to persist demo user: %w", err)
	}

	session := demoSession(user)
	p.Notify(session)
	return session, nil
}

// drop forgets a previously signed-in user so a rejected login cannot be
// undone by the next CurrentSession.
func (p *DemoProvider) drop() {
	p.mu.Lock()
	var user models.User
	had, _ := p.store.Load(DemoUserKey, &user)
	_ = p.store.Clear(DemoUserKey)
	p.mu.Unlock()

	if had {
		p.Notify(nil)
	}
}

func (p *DemoProvider) TerminateSession(ctx context.Context) error {
	p.mu.Lock()
	err := p.store.Clear(DemoUserKey)
	p.mu.Unlock()

	p.Notify(nil)
	if err != nil {
		return fmt.Errorf("failed to clear demo user: %w", err)
	}
	return nil
}

func (p *DemoProvider) CurrentSession(ctx context.Context) (*Session, error) {
	user, err := p.load()
	if err != nil || user == nil {
		return nil, err
	}
	return demoSession(user), nil
}

func (p *DemoProvider) load() (*models.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var user models.User
	ok, err := p.store.Load(DemoUserKey, &user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func demoSession(user *models.User) *Session {
	return &Session{
		TokenType: "demo",
		Identity:  models.Identity{ID: user.ID, Email: user.Email},
	}
}

// DemoProfiles serves the stored demo user as the only profile.
type DemoProfiles struct {
	provider *DemoProvider
}

func NewDemoProfiles(provider *DemoProvider) *DemoProfiles {
	return &DemoProfiles{provider: provider}
}

func (d *DemoProfiles) GetProfile(ctx context.Context, identityID uuid.UUID) (*models.User, error) {
	user, err := d.provider.load()
	if err != nil {
		return nil, err
	}
	if user == nil || user.ID != identityID {
		return nil, ErrProfileNotFound
	}
	return user, nil
}

func (d *DemoProfiles) UpdateProfile(ctx context.Context, identityID uuid.UUID, update models.ProfileUpdate) error {
	p := d.provider
	p.mu.Lock()
	defer p.mu.Unlock()

	var user models.User
	ok, err := p.store.Load(DemoUserKey, &user)
	if err != nil {
		return err
	}
	if !ok || user.ID != identityID {
		return ErrProfileNotFound
	}
	update.Apply(&user)
	user.UpdatedAt = p.now().UTC()
	return p.store.Save(DemoUserKey, &user)
}
