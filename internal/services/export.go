package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/roster"
)

var (
	ErrUnknownDataset = errors.New("unknown export dataset")
	ErrUnknownFormat  = errors.New("unknown export format")
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Datasets lists the exportable datasets.
func Datasets() []string {
	return []string{"team", "projects", "certifications", "portfolio"}
}

type ExportService struct {
	data dashboardSource
	now  func() time.Time
}

func NewExportService(data dashboardSource) *ExportService {
	return &ExportService{data: data, now: time.Now}
}

// ContentType returns the media type of an export format.
func ContentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return "text/csv; charset=utf-8"
}

// FileName names the download of dataset in format.
func (s *ExportService) FileName(dataset, format string) string {
	return fmt.Sprintf("aiden-%s-%s.%s", dataset, s.now().UTC().Format("2006-01-02"), format)
}

// Export writes dataset to w. Nothing is written when the dataset or format
// is unknown.
func (s *ExportService) Export(ctx context.Context, dataset, format string, w io.Writer) error {
	if format != FormatCSV && format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	header, records, payload, err := s.load(ctx, dataset)
	if err != nil {
		return err
	}

	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

func (s *ExportService) load(ctx context.Context, dataset string) ([]string, [][]string, any, error) {
	switch dataset {
	case "team":
		members, err := s.data.TeamMembers(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		return teamHeader, teamRecords(members), members, nil
	case "projects":
		members, err := s.data.TeamMembers(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		projects := BuildProjects(members)
		return projectHeader, projectRecords(projects), projects, nil
	case "certifications":
		members, err := s.data.TeamMembers(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		certs, err := s.data.Certifications(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		progress := BuildCertificationProgress(members, certs, s.now())
		return certificationHeader, certificationRecords(progress), progress, nil
	case "portfolio":
		projects, err := s.data.Portfolio(ctx, "")
		if err != nil {
			return nil, nil, nil, err
		}
		return portfolioHeader, portfolioRecords(projects), projects, nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dataset)
	}
}

var teamHeader = []string{"name", "email", "role", "status", "project", "allocated_from", "allocated_till", "phone", "location", "skills", "completion_rate"}

func teamRecords(members []models.TeamMember) [][]string {
	records := make([][]string, 0, len(members))
	for _, m := range members {
		var project, from, till, phone, location string
		if a := m.Assignment; a != nil {
			project = a.ProjectName
			from = formatDate(a.AllocatedFrom)
			till = formatDate(a.AllocatedTill)
		}
		if ci := m.User.ContactInfo; ci != nil {
			phone = deref(ci.Phone)
			location = deref(ci.Location)
		}
		records = append(records, []string{
			m.User.Name,
			m.User.Email,
			string(m.User.Role),
			string(m.Status()),
			project,
			from,
			till,
			phone,
			location,
			strings.Join(m.User.Skills, "; "),
			strconv.Itoa(roster.CompletionRate(m)),
		})
	}
	return records
}

var projectHeader = []string{"project", "status", "allocated_from", "allocated_till", "members"}

func projectRecords(projects []models.Project) [][]string {
	records := make([][]string, 0, len(projects))
	for _, p := range projects {
		names := make([]string, 0, len(p.Members))
		for _, m := range p.Members {
			names = append(names, m.Name)
		}
		records = append(records, []string{
			p.Name,
			string(p.Status),
			formatDate(p.AllocatedFrom),
			formatDate(p.AllocatedTill),
			strings.Join(names, "; "),
		})
	}
	return records
}

var certificationHeader = []string{"name", "role", "certification", "completed", "completion_date", "progress_percentage"}

func certificationRecords(progress models.CertificationProgress) [][]string {
	var records [][]string
	for _, m := range progress.Members {
		for _, c := range m.Certifications {
			records = append(records, []string{
				m.Name,
				string(m.Role),
				c.Name,
				strconv.FormatBool(c.Completed),
				formatDate(c.CompletionDate),
				strconv.Itoa(c.Progress),
			})
		}
	}
	return records
}

var portfolioHeader = []string{"title", "category", "description", "technologies", "team_members"}

func portfolioRecords(projects []models.PortfolioProject) [][]string {
	records := make([][]string, 0, len(projects))
	for _, p := range projects {
		records = append(records, []string{
			p.Title,
			string(p.Category),
			deref(p.Description),
			strings.Join(p.Technologies, "; "),
			strings.Join(p.TeamMembers, "; "),
		})
	}
	return records
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
