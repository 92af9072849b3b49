package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/dimitrije/aiden-dashboard/internal/database"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrUserNotFound = errors.New("user not found")

const profileColumns = `id, email, name, COALESCE(role, ''), avatar_url, phone, location, skills, strengths, created_at, updated_at`

// ProfileService is the database-backed profile store. Profiles are keyed
// by the id of the identity in users.
type ProfileService struct {
	db *database.DB
}

func NewProfileService(db *database.DB) *ProfileService {
	return &ProfileService{db: db}
}

func scanProfile(row pgx.Row) (*models.User, error) {
	var (
		user     models.User
		phone    *string
		location *string
	)
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.AvatarURL,
		&phone, &location, &user.Skills, &user.Strengths, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phone != nil || location != nil {
		user.ContactInfo = &models.ContactInfo{Phone: phone, Location: location}
	}
	return &user, nil
}

// GetProfile returns the stored profile. The role is empty when none was
// ever assigned.
func (s *ProfileService) GetProfile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := scanProfile(s.db.Pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authstate.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return user, nil
}

// Update merges update into the profile, creating the row for accounts that
// never had one. Nil fields keep their stored value. The role is never
// written here.
func (s *ProfileService) Update(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error) {
	var phone, location *string
	if update.ContactInfo != nil {
		phone = update.ContactInfo.Phone
		location = update.ContactInfo.Location
	}

	user, err := scanProfile(s.db.Pool.QueryRow(ctx, `
		INSERT INTO profiles (id, email, name, avatar_url, phone, location, skills, strengths)
		SELECT u.id, u.email, COALESCE($2::text, ''), $3::text, $4::text, $5::text,
			COALESCE($6::text[], '{}'), COALESCE($7::text[], '{}')
		FROM users u WHERE u.id = $1
		ON CONFLICT (id) DO UPDATE SET
			name = COALESCE($2::text, profiles.name),
			avatar_url = COALESCE($3::text, profiles.avatar_url),
			phone = COALESCE($4::text, profiles.phone),
			location = COALESCE($5::text, profiles.location),
			skills = COALESCE($6::text[], profiles.skills),
			strengths = COALESCE($7::text[], profiles.strengths),
			updated_at = NOW()
		RETURNING `+profileColumns,
		id, update.Name, update.AvatarURL, phone, location, update.Skills, update.Strengths,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, authstate.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// UpdateProfile satisfies authstate.ProfileStore.
func (s *ProfileService) UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) error {
	_, err := s.Update(ctx, id, update)
	return err
}

// RoleOf returns the role to stamp into access tokens. Accounts without a
// profile or with no assigned role are employees.
func (s *ProfileService) RoleOf(ctx context.Context, id uuid.UUID) (models.Role, error) {
	var role models.Role
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COALESCE(role, '') FROM profiles WHERE id = $1
	`, id).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RoleEmployee, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get role: %w", err)
	}
	if !role.IsValid() {
		return models.RoleEmployee, nil
	}
	return role, nil
}

// SetRole assigns role to the account registered under email, creating its
// profile row when missing.
func (s *ProfileService) SetRole(ctx context.Context, email string, role models.Role) (uuid.UUID, error) {
	if !role.IsValid() {
		return uuid.Nil, fmt.Errorf("invalid role %q", role)
	}

	var id uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO profiles (id, email, role)
		SELECT id, email, $2 FROM users WHERE LOWER(email) = LOWER($1)
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()
		RETURNING id
	`, email, role).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrUserNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to set role: %w", err)
	}
	return id, nil
}
