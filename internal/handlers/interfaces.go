package handlers

import (
	"context"
	"io"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/services"
	"github.com/dimitrije/aiden-dashboard/internal/sse"
	"github.com/google/uuid"
)

// CredentialServiceInterface defines the methods used by handlers from CredentialService
type CredentialServiceInterface interface {
	Authenticate(ctx context.Context, email, password string) (*models.Identity, error)
	GetIdentity(ctx context.Context, id uuid.UUID) (*models.Identity, error)
}

// ProfileServiceInterface defines the methods used by handlers from ProfileService
type ProfileServiceInterface interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) error
	Update(ctx context.Context, id uuid.UUID, update models.ProfileUpdate) (*models.User, error)
	RoleOf(ctx context.Context, id uuid.UUID) (models.Role, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string, role models.Role) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// DashboardServiceInterface defines the methods used by handlers from DashboardService
type DashboardServiceInterface interface {
	TeamMembers(ctx context.Context) ([]models.TeamMember, error)
	Certifications(ctx context.Context) ([]models.Certification, error)
	Portfolio(ctx context.Context, category models.PortfolioCategory) ([]models.PortfolioProject, error)
}

// ReportServiceInterface defines the methods used by handlers from ReportService
type ReportServiceInterface interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
	Projects(ctx context.Context) ([]models.Project, error)
	CertificationProgress(ctx context.Context) (*models.CertificationProgress, error)
	Report(ctx context.Context) (*models.Report, error)
}

// ExportServiceInterface defines the methods used by handlers from ExportService
type ExportServiceInterface interface {
	FileName(dataset, format string) string
	Export(ctx context.Context, dataset, format string, w io.Writer) error
}

// LoginRecorder counts token endpoint outcomes. *middleware.Metrics
// implements it.
type LoginRecorder interface {
	LoginAttempt(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) LoginAttempt(string) {}

// EventHubInterface defines the methods used by handlers from the event Hub
type EventHubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
}

// EventBroadcaster publishes account events to the affected user's open
// event streams. *sse.Hub implements it.
type EventBroadcaster interface {
	BroadcastProfileUpdate(userID, updatedBy uuid.UUID)
	BroadcastSessionsRevoked(userID uuid.UUID)
}

type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastProfileUpdate(uuid.UUID, uuid.UUID) {}
func (noopBroadcaster) BroadcastSessionsRevoked(uuid.UUID) {}
