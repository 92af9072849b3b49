package models

import (
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	StatusAllocated AssignmentStatus = "allocated"
	StatusFree      AssignmentStatus = "free"
	StatusTraining  AssignmentStatus = "training"
	StatusOnLeave   AssignmentStatus = "on_leave"
)

// AssignmentStatuses lists statuses in display order.
func AssignmentStatuses() []AssignmentStatus {
	return []AssignmentStatus{StatusAllocated, StatusFree, StatusTraining, StatusOnLeave}
}

type ProjectAssignment struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	ProjectName   string           `json:"project_name"`
	Status        AssignmentStatus `json:"status"`
	AllocatedFrom *time.Time       `json:"allocated_from,omitempty"`
	AllocatedTill *time.Time       `json:"allocated_till,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type CertificationCategory string

const (
	CertCategory1 CertificationCategory = "cert1"
	CertCategory2 CertificationCategory = "cert2"
	CertCategory3 CertificationCategory = "cert3"
	CertCategory4 CertificationCategory = "cert4"
)

type Certification struct {
	ID          uuid.UUID             `json:"id"`
	Name        string                `json:"name"`
	Description *string               `json:"description,omitempty"`
	Category    CertificationCategory `json:"category"`
	IsActive    bool                  `json:"is_active"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

type UserCertification struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	CertificationID    uuid.UUID  `json:"certification_id"`
	Completed          bool       `json:"completed"`
	CompletionDate     *time.Time `json:"completion_date,omitempty"`
	ProgressPercentage int        `json:"progress_percentage"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type PortfolioCategory string

const (
	PortfolioInsurance PortfolioCategory = "insurance"
	PortfolioFinance   PortfolioCategory = "finance"
	PortfolioPOC       PortfolioCategory = "poc"
	PortfolioOther     PortfolioCategory = "other"
)

func PortfolioCategories() []PortfolioCategory {
	return []PortfolioCategory{PortfolioInsurance, PortfolioFinance, PortfolioPOC, PortfolioOther}
}

type PortfolioProject struct {
	ID           uuid.UUID         `json:"id"`
	Title        string            `json:"title"`
	Category     PortfolioCategory `json:"category"`
	ThumbnailURL *string           `json:"thumbnail_url,omitempty"`
	CaseStudyURL *string           `json:"case_study_url,omitempty"`
	Description  *string           `json:"description,omitempty"`
	Technologies []string          `json:"technologies,omitempty"`
	TeamMembers  []string          `json:"team_members,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type DashboardStats struct {
	TotalUXD         int `json:"total_uxd"`
	TotalUXE         int `json:"total_uxe"`
	ProjectsLive     int `json:"projects_live"`
	FreeResources    int `json:"free_resources"`
	TrainingsPending int `json:"trainings_pending"`
}

type ChartData struct {
	Name  string  `json:"name"`
	Value int     `json:"value"`
	Color *string `json:"color,omitempty"`
}

// TeamMember is one row of the team grid: a profile joined with its current
// assignment and certification progress.
type TeamMember struct {
	User           User               `json:"user"`
	Assignment     *ProjectAssignment `json:"assignment,omitempty"`
	Certifications []MemberCert       `json:"certifications,omitempty"`
}

type MemberCert struct {
	CertificationID uuid.UUID  `json:"certification_id"`
	Name            string     `json:"name"`
	Completed       bool       `json:"completed"`
	CompletionDate  *time.Time `json:"completion_date,omitempty"`
	Progress        int        `json:"progress_percentage"`
}

// Status reports the member's assignment status; members without an
// assignment row count as free.
func (m TeamMember) Status() AssignmentStatus {
	if m.Assignment == nil {
		return StatusFree
	}
	return m.Assignment.Status
}

type ProjectMember struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

// Project is a live project and the members currently assigned to it. Its
// window spans every member's allocation.
type Project struct {
	Name          string           `json:"name"`
	Status        AssignmentStatus `json:"status"`
	AllocatedFrom *time.Time       `json:"allocated_from,omitempty"`
	AllocatedTill *time.Time       `json:"allocated_till,omitempty"`
	Members       []ProjectMember  `json:"members"`
}

type MemberProgress struct {
	UserID         uuid.UUID    `json:"user_id"`
	Name           string       `json:"name"`
	Role           Role         `json:"role"`
	CompletionRate int          `json:"completion_rate"`
	Band           string       `json:"band"`
	Certifications []MemberCert `json:"certifications"`
}

type CertificationProgress struct {
	TotalCertifications int              `json:"total_certifications"`
	AverageCompletion   int              `json:"average_completion"`
	CompletedThisMonth  int              `json:"completed_this_month"`
	InProgress          int              `json:"in_progress"`
	Members             []MemberProgress `json:"members"`
}

type Report struct {
	Stats                   DashboardStats `json:"stats"`
	StatusDistribution      []ChartData    `json:"status_distribution"`
	PortfolioByCategory     []ChartData    `json:"portfolio_by_category"`
	CertificationCompletion []ChartData    `json:"certification_completion"`
	GeneratedAt             time.Time      `json:"generated_at"`
}
