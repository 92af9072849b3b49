package authstate

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
)

// ProfileResolver turns a verified identity into a User. It never fails: a
// missing or unreadable profile yields a fallback employee record.
type ProfileResolver struct {
	profiles ProfileStore
	now      func() time.Time
	logger   *log.Logger
}

func NewProfileResolver(profiles ProfileStore, now func() time.Time, logger *log.Logger) *ProfileResolver {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ProfileResolver{profiles: profiles, now: now, logger: logger}
}

func (r *ProfileResolver) Resolve(ctx context.Context, id models.Identity) *models.User {
	profile, err := r.profiles.GetProfile(ctx, id.ID)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			r.logger.Printf("auth: %v for %s: %v", ErrProfileFetchFailed, id.ID, err)
		}
		return r.Fallback(id)
	}
	if profile == nil {
		return r.Fallback(id)
	}

	user := profile.Clone()
	user.ID = id.ID
	if user.Email == "" {
		user.Email = id.Email
	}
	if user.Name == "" {
		user.Name = LocalPart(user.Email)
	}
	if !user.Role.IsValid() {
		user.Role = models.RoleEmployee
	}
	if user.Skills == nil {
		user.Skills = []string{}
	}
	if user.Strengths == nil {
		user.Strengths = []string{}
	}
	return user
}

// Fallback synthesizes the record used when no profile exists.
func (r *ProfileResolver) Fallback(id models.Identity) *models.User {
	now := r.now().UTC()
	return &models.User{
		ID:        id.ID,
		Email:     id.Email,
		Name:      LocalPart(id.Email),
		Role:      models.RoleEmployee,
		Skills:    []string{},
		Strengths: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LocalPart returns the part of an email address before the '@'.
func LocalPart(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	return local
}
