package authstate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type account struct {
	password string
	identity models.Identity
}

// fakeProvider verifies against an in-memory account table and notifies
// synchronously, the way the real adapters do.
type fakeProvider struct {
	Notifier

	mu           sync.Mutex
	accounts     map[string]account
	current      *Session
	terminateErr error
	calls        []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{accounts: make(map[string]account)}
}

func (p *fakeProvider) addAccount(email, password string) models.Identity {
	id := models.Identity{ID: uuid.New(), Email: email}
	p.accounts[email] = account{password: password, identity: id}
	return id
}

func (p *fakeProvider) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *fakeProvider) VerifyCredentials(ctx context.Context, email, password string) (*Session, error) {
	p.record("verify")
	p.mu.Lock()
	acc, ok := p.accounts[email]
	if !ok || acc.password != password {
		p.mu.Unlock()
		return nil, errors.New("invalid login credentials")
	}
	s := &Session{AccessToken: "token-" + email, Identity: acc.identity}
	p.current = s
	p.mu.Unlock()

	p.Notify(s)
	return s, nil
}

func (p *fakeProvider) TerminateSession(ctx context.Context) error {
	p.record("terminate")
	p.mu.Lock()
	err := p.terminateErr
	if err == nil {
		p.current = nil
	}
	p.mu.Unlock()

	if err != nil {
		return err
	}
	p.Notify(nil)
	return nil
}

func (p *fakeProvider) CurrentSession(ctx context.Context) (*Session, error) {
	p.record("current")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, nil
}

func (p *fakeProvider) OnSessionChange(fn func(*Session)) func() {
	p.record("subscribe")
	return p.Notifier.OnSessionChange(fn)
}

type mockProfileStore struct {
	mock.Mock
}

func (m *mockProfileStore) GetProfile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockProfileStore) UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestMachine(p IdentityProvider, s ProfileStore) *Machine {
	return NewMachine(p, s, WithLogger(quietLogger()), WithClock(func() time.Time { return fixedNow }))
}

func profileFor(id models.Identity, name string, role models.Role) *models.User {
	return &models.User{
		ID:        id.ID,
		Email:     id.Email,
		Name:      name,
		Role:      role,
		Skills:    []string{"Figma"},
		CreatedAt: fixedNow.Add(-time.Hour),
		UpdatedAt: fixedNow.Add(-time.Hour),
	}
}

func assertConsistent(t *testing.T, s AuthState) {
	t.Helper()
	assert.Equal(t, s.User != nil, s.IsAuthenticated, "isAuthenticated must track user presence: %+v", s)
}

func TestMachine_InitialState(t *testing.T) {
	m := newTestMachine(newFakeProvider(), new(mockProfileStore))

	s := m.State()
	assert.True(t, s.IsLoading)
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
}

func TestMachine_Start_NoSession(t *testing.T) {
	provider := newFakeProvider()
	m := newTestMachine(provider, new(mockProfileStore))
	defer m.Close()

	m.Start(context.Background())

	assert.Equal(t, AuthState{}, m.State())
	assert.Equal(t, []string{"subscribe", "current"}, provider.calls)
}

func TestMachine_Start_RestoresSession(t *testing.T) {
	provider := newFakeProvider()
	id := provider.addAccount("lead@aiden.ai", "pw")
	provider.current = &Session{Identity: id}

	profiles := new(mockProfileStore)
	profiles.On("GetProfile", mock.Anything, id.ID).Return(profileFor(id, "Lead", models.RoleLeadership), nil)

	m := newTestMachine(provider, profiles)
	defer m.Close()
	m.Start(context.Background())

	s := m.State()
	require.True(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	assert.Equal(t, models.RoleLeadership, s.User.Role)
	assert.Equal(t, "Lead", s.User.Name)
	profiles.AssertExpectations(t)
}

func TestMachine_Start_SubscribesBeforeQueryingSession(t *testing.T) {
	provider := newFakeProvider()
	m := newTestMachine(provider, new(mockProfileStore))
	defer m.Close()

	m.Start(context.Background())
	m.Start(context.Background())

	require.Len(t, provider.calls, 2)
	assert.Equal(t, "subscribe", provider.calls[0])
	assert.Equal(t, "current", provider.calls[1])
}

func TestMachine_Login_Success(t *testing.T) {
	provider := newFakeProvider()
	id := provider.addAccount("admin@aiden.ai", "demo123")

	profiles := new(mockProfileStore)
	profiles.On("GetProfile", mock.Anything, id.ID).Return(profileFor(id, "Super Admin", models.RoleSuperAdmin), nil)

	m := newTestMachine(provider, profiles)
	defer m.Close()
	m.Start(context.Background())

	var seen []AuthState
	unsubscribe := m.Subscribe(func(s AuthState) { seen = append(seen, s) })
	defer unsubscribe()

	err := m.Login(context.Background(), "admin@aiden.ai", "demo123")
	require.NoError(t, err)

	s := m.State()
	require.True(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	assert.Equal(t, models.RoleSuperAdmin, s.User.Role)

	require.Len(t, seen, 2)
	assert.True(t, seen[0].IsLoading)
	assert.False(t, seen[0].IsAuthenticated)
	assert.True(t, seen[1].IsAuthenticated)
	for _, st := range seen {
		assertConsistent(t, st)
	}
}

func TestMachine_Login_ProfileWithoutRoleDefaultsToEmployee(t *testing.T) {
	provider := newFakeProvider()
	id := provider.addAccount("jane@aiden.ai", "pw")

	profiles := new(mockProfileStore)
	profiles.On("GetProfile", mock.Anything, id.ID).Return(profileFor(id, "Jane", ""), nil)

	m := newTestMachine(provider, profiles)
	defer m.Close()
	m.Start(context.Background())

	require.NoError(t, m.Login(context.Background(), "jane@aiden.ai", "pw"))
	assert.Equal(t, models.RoleEmployee, m.State().User.Role)
}

func TestMachine_Login_InvalidCredentials(t *testing.T) {
	provider := newFakeProvider()
	provider.addAccount("jane@aiden.ai", "pw")

	m := newTestMachine(provider, new(mockProfileStore))
	defer m.Close()
	m.Start(context.Background())

	err := m.Login(context.Background(), "jane@aiden.ai", "wrong")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, AuthState{}, m.State())
}

func TestMachine_Login_FailureClearsPreviousUser(t *testing.T) {
	provider := newFakeProvider()
	id := provider.addAccount("jane@aiden.ai", "pw")

	profiles := new(mockProfileStore)
	profiles.On("GetProfile", mock.Anything, id.ID).Return(profileFor(id, "Jane", models.RoleEmployee), nil)

	m := newTestMachine(provider, profiles)
	defer m.Close()
	m.Start(context.Background())
	require.NoError(t, m.Login(context.Background(), "jane@aiden.ai", "pw"))

	err := m.Login(context.Background(), "jane@aiden.ai", "nope")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, AuthState{}, m.State())
}

func TestMachine_Logout_ClearsStateEvenWhenTerminationFails(t *testing.T) {
	provider := newFakeProvider()
	id := provider.addAccount("jane@aiden.ai", "pw")

	profiles := new(mockProfileStore)
	profiles.On("GetProfile", mock.Anything, id.ID).Return(profileFor(id, "Jane", models.RoleEmployee), nil)

	m := newTestMachine(provider, profiles)
	defer m.Close()
	m.Start(context.Background())
	require.NoError(t, m.Login(context.Background(), "jane@aiden.ai", "pw"))

	provider.terminateErr = errors.New("network unreachable")
	err := m.Logout(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, AuthState{}, m.State())
}

func TestMachine_UpdateUser_Success(t *testing.T) {
	provider := newFakeProvider()
	id := provider.addAccount("jane@aiden.ai", "pw")

	profiles := new(mockProfileStore)
	profiles.On("GetProfile", mock.Anything, id.ID).Return(profileFor(id, "Jane", models.RoleEmployee), nil)

	name := "Jane Doe"
	update := models.ProfileUpdate{Name: &name, Strengths: []string{"Research"}}
	profiles.On("UpdateProfile", mock.Anything, id.ID, update).Return(nil)

	m := newTestMachine(provider, profiles)
	defer m.Close()
	m.Start(context.Background())
	require.NoError(t, m.Login(context.Background(), "jane@aiden.ai", "pw"))

	user, err := m.UpdateUser(context.Background(), update)

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", user.Name)
	assert.Equal(t, []string{"Research"}, user.Strengths)
	assert.Equal(t, []string{"Figma"}, user.Skills)
	assert.Equal(t, fixedNow, user.UpdatedAt)
	assert.Equal(t, user, m.State().User)
	profiles.AssertExpectations(t)
}

func TestMachine_UpdateUser_FailureLeavesUserUnchanged(t *testing.T) {
	provider := newFakeProvider()
	id := provider.addAccount("jane@aiden.ai", "pw")

	profiles := new(mockProfileStore)
	profiles.On("GetProfile", mock.Anything, id.ID).Return(profileFor(id, "Jane", models.RoleEmployee), nil)
	profiles.On("UpdateProfile", mock.Anything, id.ID, mock.Anything).Return(errors.New("permission denied"))

	m := newTestMachine(provider, profiles)
	defer m.Close()
	m.Start(context.Background())
	require.NoError(t, m.Login(context.Background(), "jane@aiden.ai", "pw"))

	before, err := json.Marshal(m.State().User)
	require.NoError(t, err)

	name := "Someone Else"
	_, err = m.UpdateUser(context.Background(), models.ProfileUpdate{Name: &name, Skills: []string{}})

	assert.ErrorIs(t, err, ErrProfileUpdateFailed)
	after, err := json.Marshal(m.State().User)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestMachine_UpdateUser_RequiresSession(t *testing.T) {
	m := newTestMachine(newFakeProvider(), new(mockProfileStore))
	defer m.Close()
	m.Start(context.Background())

	name := "x"
	_, err := m.UpdateUser(context.Background(), models.ProfileUpdate{Name: &name})

	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestMachine_TokenRefreshReResolvesProfile(t *testing.T) {
	provider := newFakeProvider()
	id := provider.addAccount("jane@aiden.ai", "pw")

	profiles := new(mockProfileStore)
	profiles.On("GetProfile", mock.Anything, id.ID).Return(profileFor(id, "Jane", models.RoleEmployee), nil).Once()
	profiles.On("GetProfile", mock.Anything, id.ID).Return(profileFor(id, "Jane", models.RoleLeadership), nil).Once()

	m := newTestMachine(provider, profiles)
	defer m.Close()
	m.Start(context.Background())
	require.NoError(t, m.Login(context.Background(), "jane@aiden.ai", "pw"))
	require.Equal(t, models.RoleEmployee, m.State().User.Role)

	provider.Notify(&Session{AccessToken: "refreshed", Identity: id})

	assert.Equal(t, models.RoleLeadership, m.State().User.Role)
	profiles.AssertExpectations(t)
}

// blockingProfiles parks GetProfile until released so tests can interleave
// other transitions with an in-flight resolution.
type blockingProfiles struct {
	entered chan struct{}
	release chan struct{}
	user    *models.User
}

func (b *blockingProfiles) GetProfile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.user, nil
}

func (b *blockingProfiles) UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) error {
	return nil
}

func TestMachine_StaleResolutionIsDiscardedAfterLogout(t *testing.T) {
	provider := newFakeProvider()
	id := provider.addAccount("jane@aiden.ai", "pw")
	profiles := &blockingProfiles{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		user:    profileFor(id, "Jane", models.RoleEmployee),
	}

	m := newTestMachine(provider, profiles)
	defer m.Close()
	m.Start(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		provider.Notify(&Session{Identity: id})
	}()

	<-profiles.entered
	require.NoError(t, m.Logout(context.Background()))
	close(profiles.release)
	<-done

	assert.Equal(t, AuthState{}, m.State())
}

func TestMachine_CloseStopsUpdates(t *testing.T) {
	provider := newFakeProvider()
	id := provider.addAccount("jane@aiden.ai", "pw")

	m := newTestMachine(provider, new(mockProfileStore))
	m.Start(context.Background())

	calls := 0
	m.Subscribe(func(AuthState) { calls++ })
	m.Close()

	provider.Notify(&Session{Identity: id})

	assert.Equal(t, 0, calls)
	assert.Equal(t, AuthState{}, m.State())
}

func TestMachine_Settled(t *testing.T) {
	m := newTestMachine(newFakeProvider(), new(mockProfileStore))
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := m.Settled(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	m.Start(context.Background())
	s, err := m.Settled(context.Background())
	require.NoError(t, err)
	assert.False(t, s.IsLoading)
}

func TestMachine_AuthenticatedIffUserPresent(t *testing.T) {
	provider := newFakeProvider()
	emails := []string{"a@aiden.ai", "b@aiden.ai", "c@aiden.ai"}
	profiles := new(mockProfileStore)
	for _, e := range emails {
		id := provider.addAccount(e, "pw")
		profiles.On("GetProfile", mock.Anything, id.ID).Return(profileFor(id, e, models.RoleEmployee), nil).Maybe()
	}

	m := newTestMachine(provider, profiles)
	defer m.Close()

	var mu sync.Mutex
	var seen []AuthState
	m.Subscribe(func(s AuthState) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	m.Start(context.Background())

	rng := rand.New(rand.NewSource(7))
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		switch rng.Intn(3) {
		case 0:
			_ = m.Login(ctx, emails[rng.Intn(len(emails))], "pw")
		case 1:
			_ = m.Login(ctx, emails[rng.Intn(len(emails))], "bad")
		case 2:
			_ = m.Logout(ctx)
		}
		assertConsistent(t, m.State())
	}

	mu.Lock()
	defer mu.Unlock()
	for _, s := range seen {
		assertConsistent(t, s)
	}
}

func TestScenario_DemoBootThenAdminLogin(t *testing.T) {
	provider := NewDemoProvider(NewMemoryStore(), "")
	m := newTestMachine(provider, NewDemoProfiles(provider))
	defer m.Close()

	m.Start(context.Background())
	s, err := m.Settled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, AuthState{}, s)

	require.NoError(t, m.Login(context.Background(), "admin@aiden.ai", "demo123"))

	s = m.State()
	require.True(t, s.IsAuthenticated)
	assert.Equal(t, models.RoleSuperAdmin, s.User.Role)
}
