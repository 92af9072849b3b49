package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/dimitrije/aiden-dashboard/internal/database"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrEmptyPassword = errors.New("password must not be empty")

// CredentialService owns the users table: account identities and their
// password hashes.
type CredentialService struct {
	db   *database.DB
	cost int
	// compared against when the email is unknown so both paths cost a
	// bcrypt round
	dummyHash []byte
}

func NewCredentialService(db *database.DB, cost int) *CredentialService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("aiden-dashboard"), cost)
	return &CredentialService{db: db, cost: cost, dummyHash: dummy}
}

func (s *CredentialService) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Authenticate returns the identity whose password matches.
// authstate.ErrInvalidCredentials covers both an unknown email and a wrong
// password.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	var (
		identity models.Identity
		hash     string
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, password_hash FROM users
		WHERE LOWER(email) = LOWER($1)
	`, strings.TrimSpace(email)).Scan(&identity.ID, &identity.Email, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, authstate.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, authstate.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password: %w", err)
	}
	return &identity, nil
}

func (s *CredentialService) GetIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.Pool.QueryRow(ctx, `SELECT id, email FROM users WHERE id = $1`, id).
		Scan(&identity.ID, &identity.Email)
	if err != nil {
		return nil, err
	}
	return &identity, nil
}
