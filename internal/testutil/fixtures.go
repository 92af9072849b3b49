package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/dimitrije/aiden-dashboard/internal/database"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/services"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password of every account the fixtures create
// unless WithPassword says otherwise.
const DefaultPassword = "password123"

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db          *database.DB
	credentials *services.CredentialService
	profiles    *services.ProfileService
	counter     int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{
		db:          db,
		credentials: services.NewCredentialService(db, bcrypt.MinCost),
		profiles:    services.NewProfileService(db),
	}
}

type account struct {
	email    string
	password string
	role     models.Role
}

// AccountOption configures a test account
type AccountOption func(*account)

func WithEmail(email string) AccountOption {
	return func(a *account) { a.email = email }
}

func WithPassword(password string) AccountOption {
	return func(a *account) { a.password = password }
}

// WithRole also creates the profile row carrying the role.
func WithRole(role models.Role) AccountOption {
	return func(a *account) { a.role = role }
}

// CreateAccount registers a login. Without WithRole the account has no
// profile row, like a freshly provisioned identity.
func (f *Fixtures) CreateAccount(t *testing.T, opts ...AccountOption) *models.Identity {
	t.Helper()
	f.counter++

	a := &account{
		email:    fmt.Sprintf("user%d@aiden.ai", f.counter),
		password: DefaultPassword,
	}
	for _, opt := range opts {
		opt(a)
	}

	hash, err := f.credentials.HashPassword(a.password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	ctx := context.Background()
	identity := &models.Identity{}
	err = f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING id, email
	`, a.email, hash).Scan(&identity.ID, &identity.Email)
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	if a.role != "" {
		if _, err := f.profiles.SetRole(ctx, a.email, a.role); err != nil {
			t.Fatalf("failed to set role: %v", err)
		}
	}
	return identity
}
