package services

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/roster"
)

// engineeringSkills marks a member as a UX engineer rather than a designer.
var engineeringSkills = []string{
	"react", "typescript", "javascript", "frontend", "angular", "vue", "css", "html",
}

var statusColors = map[models.AssignmentStatus]string{
	models.StatusAllocated: "#2563eb",
	models.StatusFree:      "#16a34a",
	models.StatusTraining:  "#ea580c",
	models.StatusOnLeave:   "#dc2626",
}

type dashboardSource interface {
	TeamMembers(ctx context.Context) ([]models.TeamMember, error)
	Certifications(ctx context.Context) ([]models.Certification, error)
	Portfolio(ctx context.Context, category models.PortfolioCategory) ([]models.PortfolioProject, error)
}

// ReportService derives the dashboard aggregates from the department
// records.
type ReportService struct {
	data dashboardSource
	now  func() time.Time
}

func NewReportService(data dashboardSource) *ReportService {
	return &ReportService{data: data, now: time.Now}
}

func (s *ReportService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	members, err := s.data.TeamMembers(ctx)
	if err != nil {
		return nil, err
	}
	stats := BuildStats(members)
	return &stats, nil
}

func (s *ReportService) Projects(ctx context.Context) ([]models.Project, error) {
	members, err := s.data.TeamMembers(ctx)
	if err != nil {
		return nil, err
	}
	return BuildProjects(members), nil
}

func (s *ReportService) CertificationProgress(ctx context.Context) (*models.CertificationProgress, error) {
	members, err := s.data.TeamMembers(ctx)
	if err != nil {
		return nil, err
	}
	certs, err := s.data.Certifications(ctx)
	if err != nil {
		return nil, err
	}
	progress := BuildCertificationProgress(members, certs, s.now())
	return &progress, nil
}

func (s *ReportService) Report(ctx context.Context) (*models.Report, error) {
	members, err := s.data.TeamMembers(ctx)
	if err != nil {
		return nil, err
	}
	certs, err := s.data.Certifications(ctx)
	if err != nil {
		return nil, err
	}
	portfolio, err := s.data.Portfolio(ctx, "")
	if err != nil {
		return nil, err
	}
	report := BuildReport(members, certs, portfolio, s.now())
	return &report, nil
}

// IsEngineer reports whether any of the member's skills is an engineering
// skill.
func IsEngineer(m models.TeamMember) bool {
	for _, skill := range m.User.Skills {
		if slices.Contains(engineeringSkills, strings.ToLower(strings.TrimSpace(skill))) {
			return true
		}
	}
	return false
}

func BuildStats(members []models.TeamMember) models.DashboardStats {
	var stats models.DashboardStats
	live := map[string]bool{}
	for _, m := range members {
		if IsEngineer(m) {
			stats.TotalUXE++
		} else {
			stats.TotalUXD++
		}
		if m.Status() == models.StatusAllocated && m.Assignment.ProjectName != "" {
			live[m.Assignment.ProjectName] = true
		}
		for _, c := range m.Certifications {
			if !c.Completed {
				stats.TrainingsPending++
			}
		}
	}
	stats.ProjectsLive = len(live)
	stats.FreeResources = roster.Summarize(members).Free
	return stats
}

// BuildProjects groups members by assigned project in first-seen order.
// Members without a project name are skipped.
func BuildProjects(members []models.TeamMember) []models.Project {
	projects := []models.Project{}
	index := map[string]int{}
	for _, m := range members {
		a := m.Assignment
		if a == nil || a.ProjectName == "" {
			continue
		}
		i, ok := index[a.ProjectName]
		if !ok {
			i = len(projects)
			index[a.ProjectName] = i
			projects = append(projects, models.Project{
				Name:    a.ProjectName,
				Status:  a.Status,
				Members: []models.ProjectMember{},
			})
		}
		p := &projects[i]
		p.Members = append(p.Members, models.ProjectMember{UserID: m.User.ID, Name: m.User.Name})
		p.AllocatedFrom = earliest(p.AllocatedFrom, a.AllocatedFrom)
		p.AllocatedTill = latest(p.AllocatedTill, a.AllocatedTill)
		// a project with anyone allocated is live
		if a.Status == models.StatusAllocated {
			p.Status = models.StatusAllocated
		}
	}
	return projects
}

func earliest(a, b *time.Time) *time.Time {
	if a == nil || (b != nil && b.Before(*a)) {
		return b
	}
	return a
}

func latest(a, b *time.Time) *time.Time {
	if a == nil || (b != nil && b.After(*a)) {
		return b
	}
	return a
}

func BuildCertificationProgress(members []models.TeamMember, certs []models.Certification, now time.Time) models.CertificationProgress {
	progress := models.CertificationProgress{
		TotalCertifications: len(certs),
		AverageCompletion:   roster.AverageCompletion(members),
		Members:             make([]models.MemberProgress, 0, len(members)),
	}
	year, month, _ := now.Date()
	for _, m := range members {
		for _, c := range m.Certifications {
			switch {
			case c.Completed:
				if c.CompletionDate != nil {
					y, mo, _ := c.CompletionDate.Date()
					if y == year && mo == month {
						progress.CompletedThisMonth++
					}
				}
			case c.Progress > 0:
				progress.InProgress++
			}
		}

		rate := roster.CompletionRate(m)
		certsOf := m.Certifications
		if certsOf == nil {
			certsOf = []models.MemberCert{}
		}
		progress.Members = append(progress.Members, models.MemberProgress{
			UserID:         m.User.ID,
			Name:           m.User.Name,
			Role:           m.User.Role,
			CompletionRate: rate,
			Band:           string(roster.BandFor(rate)),
			Certifications: certsOf,
		})
	}
	return progress
}

func BuildReport(members []models.TeamMember, certs []models.Certification, portfolio []models.PortfolioProject, now time.Time) models.Report {
	report := models.Report{
		Stats:       BuildStats(members),
		GeneratedAt: now.UTC(),
	}

	byStatus := map[models.AssignmentStatus]int{}
	for _, m := range members {
		byStatus[m.Status()]++
	}
	for _, status := range models.AssignmentStatuses() {
		color := statusColors[status]
		report.StatusDistribution = append(report.StatusDistribution, models.ChartData{
			Name:  string(status),
			Value: byStatus[status],
			Color: &color,
		})
	}

	byCategory := map[models.PortfolioCategory]int{}
	for _, p := range portfolio {
		byCategory[p.Category]++
	}
	for _, category := range models.PortfolioCategories() {
		report.PortfolioByCategory = append(report.PortfolioByCategory, models.ChartData{
			Name:  string(category),
			Value: byCategory[category],
		})
	}

	report.CertificationCompletion = make([]models.ChartData, 0, len(certs))
	for _, cert := range certs {
		enrolled, done := 0, 0
		for _, m := range members {
			for _, mc := range m.Certifications {
				if mc.CertificationID != cert.ID {
					continue
				}
				enrolled++
				if mc.Completed {
					done++
				}
			}
		}
		value := 0
		if enrolled > 0 {
			value = done * 100 / enrolled
		}
		report.CertificationCompletion = append(report.CertificationCompletion, models.ChartData{
			Name:  cert.Name,
			Value: value,
		})
	}
	return report
}
