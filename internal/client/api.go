package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/roster"
	"github.com/dimitrije/aiden-dashboard/pkg/dto"
	"golang.org/x/oauth2"
)

// API is a typed client of the dashboard endpoints.
type API struct {
	api requester
}

func NewAPI(baseURL string, tokens oauth2.TokenSource, httpClient *http.Client) *API {
	return &API{api: newRequester(baseURL, tokens, httpClient)}
}

func (a *API) Me(ctx context.Context) (*dto.UserResponse, error) {
	var out dto.UserResponse
	if err := a.api.do(ctx, http.MethodGet, "/api/v1/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var out models.DashboardStats
	if err := a.api.do(ctx, http.MethodGet, "/api/v1/dashboard/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Team(ctx context.Context, q roster.Query) (*roster.Result, error) {
	path := "/api/v1/team"
	if v := q.Values(); len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out roster.Result
	if err := a.api.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Projects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := a.api.do(ctx, http.MethodGet, "/api/v1/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Certifications(ctx context.Context) ([]models.Certification, error) {
	var out []models.Certification
	if err := a.api.do(ctx, http.MethodGet, "/api/v1/certifications", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) CertificationProgress(ctx context.Context) (*models.CertificationProgress, error) {
	var out models.CertificationProgress
	if err := a.api.do(ctx, http.MethodGet, "/api/v1/certifications/progress", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Portfolio lists portfolio projects, optionally restricted to category.
func (a *API) Portfolio(ctx context.Context, category models.PortfolioCategory) ([]models.PortfolioProject, error) {
	path := "/api/v1/portfolio"
	if category != "" {
		path += "?" + url.Values{"category": {string(category)}}.Encode()
	}
	var out []models.PortfolioProject
	if err := a.api.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) Reports(ctx context.Context) (*models.Report, error) {
	var out models.Report
	if err := a.api.do(ctx, http.MethodGet, "/api/v1/reports", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export streams dataset into w in format, csv when empty.
func (a *API) Export(ctx context.Context, dataset, format string, w io.Writer) error {
	path := "/api/v1/export/" + url.PathEscape(dataset)
	if format != "" {
		path += "?" + url.Values{"format": {format}}.Encode()
	}
	resp, err := a.api.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read export: %w", err)
	}
	return nil
}
