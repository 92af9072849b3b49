package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/dimitrije/aiden-dashboard/internal/database"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/google/uuid"
)

// DashboardService reads the department records behind the dashboard pages.
// Records are loaded wholesale; filtering and aggregation happen in memory.
type DashboardService struct {
	db *database.DB
}

func NewDashboardService(db *database.DB) *DashboardService {
	return &DashboardService{db: db}
}

// TeamMembers returns every account with its profile, latest assignment and
// progress on active certifications.
func (s *DashboardService) TeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT u.id, u.email, COALESCE(p.name, ''), COALESCE(p.role, ''), p.avatar_url, p.phone, p.location,
			COALESCE(p.skills, '{}'), COALESCE(p.strengths, '{}'), u.created_at, u.updated_at,
			a.id, a.project_name, a.status, a.allocated_from, a.allocated_till, a.created_at, a.updated_at
		FROM users u
		LEFT JOIN profiles p ON p.id = u.id
		LEFT JOIN LATERAL (
			SELECT id, project_name, status, allocated_from, allocated_till, created_at, updated_at
			FROM project_assignments
			WHERE user_id = u.id
			ORDER BY updated_at DESC
			LIMIT 1
		) a ON TRUE
		ORDER BY u.email
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query team: %w", err)
	}
	defer rows.Close()

	var members []models.TeamMember
	index := map[uuid.UUID]int{}
	for rows.Next() {
		var (
			m               models.TeamMember
			phone, location *string
			a               assignmentRow
		)
		if err := rows.Scan(
			&m.User.ID, &m.User.Email, &m.User.Name, &m.User.Role, &m.User.AvatarURL, &phone, &location,
			&m.User.Skills, &m.User.Strengths, &m.User.CreatedAt, &m.User.UpdatedAt,
			&a.id, &a.project, &a.status, &a.from, &a.till, &a.created, &a.updated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}

		if phone != nil || location != nil {
			m.User.ContactInfo = &models.ContactInfo{Phone: phone, Location: location}
		}
		if m.User.Name == "" {
			m.User.Name = authstate.LocalPart(m.User.Email)
		}
		if !m.User.Role.IsValid() {
			m.User.Role = models.RoleEmployee
		}
		m.Assignment = a.assignment(m.User.ID)

		index[m.User.ID] = len(members)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachCertifications(ctx, members, index); err != nil {
		return nil, err
	}
	return members, nil
}

// assignmentRow holds the nullable columns of the lateral assignment join.
type assignmentRow struct {
	id               *uuid.UUID
	project          *string
	status           *models.AssignmentStatus
	from, till       *time.Time
	created, updated *time.Time
}

func (a assignmentRow) assignment(userID uuid.UUID) *models.ProjectAssignment {
	if a.id == nil {
		return nil
	}
	out := &models.ProjectAssignment{
		ID:            *a.id,
		UserID:        userID,
		AllocatedFrom: a.from,
		AllocatedTill: a.till,
	}
	if a.project != nil {
		out.ProjectName = *a.project
	}
	if a.status != nil {
		out.Status = *a.status
	}
	if a.created != nil {
		out.CreatedAt = *a.created
	}
	if a.updated != nil {
		out.UpdatedAt = *a.updated
	}
	return out
}

func (s *DashboardService) attachCertifications(ctx context.Context, members []models.TeamMember, index map[uuid.UUID]int) error {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT uc.user_id, c.id, c.name, uc.completed, uc.completion_date, uc.progress_percentage
		FROM user_certifications uc
		INNER JOIN certifications c ON c.id = uc.certification_id
		WHERE c.is_active
		ORDER BY c.category, c.name
	`)
	if err != nil {
		return fmt.Errorf("failed to query certification progress: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID uuid.UUID
			mc     models.MemberCert
		)
		if err := rows.Scan(&userID, &mc.CertificationID, &mc.Name, &mc.Completed, &mc.CompletionDate, &mc.Progress); err != nil {
			return fmt.Errorf("failed to scan certification progress: %w", err)
		}
		if i, ok := index[userID]; ok {
			members[i].Certifications = append(members[i].Certifications, mc)
		}
	}
	return rows.Err()
}

func (s *DashboardService) Certifications(ctx context.Context) ([]models.Certification, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, name, description, category, is_active, created_at, updated_at
		FROM certifications
		WHERE is_active
		ORDER BY category, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query certifications: %w", err)
	}
	defer rows.Close()

	var certs []models.Certification
	for rows.Next() {
		var c models.Certification
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Category, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan certification: %w", err)
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

// Portfolio lists portfolio projects. An empty category lists all of them.
func (s *DashboardService) Portfolio(ctx context.Context, category models.PortfolioCategory) ([]models.PortfolioProject, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, title, category, thumbnail_url, case_study_url, description, technologies, team_members, created_at, updated_at
		FROM portfolio_projects
		WHERE $1 = '' OR category = $1
		ORDER BY category, title
	`, string(category))
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio: %w", err)
	}
	defer rows.Close()

	var projects []models.PortfolioProject
	for rows.Next() {
		var p models.PortfolioProject
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Category, &p.ThumbnailURL, &p.CaseStudyURL, &p.Description,
			&p.Technologies, &p.TeamMembers, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
