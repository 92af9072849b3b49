package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strings"

	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/roster"
	"github.com/dimitrije/aiden-dashboard/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
)

type DashboardHandler struct {
	data    DashboardServiceInterface
	reports ReportServiceInterface
}

func NewDashboardHandler(data DashboardServiceInterface, reports ReportServiceInterface) *DashboardHandler {
	return &DashboardHandler{data: data, reports: reports}
}

func (h *DashboardHandler) Stats(c *drift.Context) {
	stats, err := h.reports.Stats(c.Request.Context())
	if err != nil {
		log.Printf("dashboard: stats: %v", err)
		c.InternalServerError("failed to load stats")
		return
	}
	_ = c.JSON(http.StatusOK, stats)
}

// Team runs the roster query in the URL over every team member.
func (h *DashboardHandler) Team(c *drift.Context) {
	q, err := roster.ParseQuery(c.QueryParam)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	members, err := h.data.TeamMembers(c.Request.Context())
	if err != nil {
		log.Printf("dashboard: team: %v", err)
		c.InternalServerError("failed to load team")
		return
	}

	res, err := roster.Run(members, q)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}
	_ = c.JSON(http.StatusOK, res)
}

func (h *DashboardHandler) Projects(c *drift.Context) {
	projects, err := h.reports.Projects(c.Request.Context())
	if err != nil {
		log.Printf("dashboard: projects: %v", err)
		c.InternalServerError("failed to load projects")
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	_ = c.JSON(http.StatusOK, projects)
}

func (h *DashboardHandler) Certifications(c *drift.Context) {
	certs, err := h.data.Certifications(c.Request.Context())
	if err != nil {
		log.Printf("dashboard: certifications: %v", err)
		c.InternalServerError("failed to load certifications")
		return
	}
	if certs == nil {
		certs = []models.Certification{}
	}
	_ = c.JSON(http.StatusOK, certs)
}

func (h *DashboardHandler) CertificationProgress(c *drift.Context) {
	progress, err := h.reports.CertificationProgress(c.Request.Context())
	if err != nil {
		log.Printf("dashboard: certification progress: %v", err)
		c.InternalServerError("failed to load certification progress")
		return
	}
	_ = c.JSON(http.StatusOK, progress)
}

func (h *DashboardHandler) Portfolio(c *drift.Context) {
	category := models.PortfolioCategory(strings.TrimSpace(c.QueryParam("category")))
	if category != "" && !slices.Contains(models.PortfolioCategories(), category) {
		c.BadRequest(fmt.Sprintf("unknown category %q", category))
		return
	}

	projects, err := h.data.Portfolio(c.Request.Context(), category)
	if err != nil {
		log.Printf("dashboard: portfolio: %v", err)
		c.InternalServerError("failed to load portfolio")
		return
	}
	if projects == nil {
		projects = []models.PortfolioProject{}
	}
	_ = c.JSON(http.StatusOK, projects)
}

func (h *DashboardHandler) Reports(c *drift.Context) {
	report, err := h.reports.Report(c.Request.Context())
	if err != nil {
		log.Printf("dashboard: reports: %v", err)
		c.InternalServerError("failed to build report")
		return
	}
	_ = c.JSON(http.StatusOK, report)
}

type ExportHandler struct {
	exports ExportServiceInterface
}

func NewExportHandler(exports ExportServiceInterface) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export streams a dataset as a file download. format defaults to csv.
func (h *ExportHandler) Export(c *drift.Context) {
	dataset := c.Param("dataset")
	format := strings.ToLower(strings.TrimSpace(c.QueryParam("format")))
	if format == "" {
		format = services.FormatCSV
	}

	w := &attachmentWriter{
		c:           c,
		contentType: services.ContentType(format),
		fileName:    h.exports.FileName(dataset, format),
	}
	err := h.exports.Export(c.Request.Context(), dataset, format, w)
	if err == nil {
		w.start()
		return
	}

	if w.started {
		log.Printf("export: %s aborted mid-stream: %v", dataset, err)
		return
	}
	switch {
	case errors.Is(err, services.ErrUnknownDataset):
		c.NotFound(fmt.Sprintf("unknown dataset %q", dataset))
	case errors.Is(err, services.ErrUnknownFormat):
		c.BadRequest(fmt.Sprintf("unknown format %q", format))
	default:
		log.Printf("export: %s: %v", dataset, err)
		c.InternalServerError("failed to export")
	}
}

// attachmentWriter sends the download headers with the first byte of the
// body, so errors raised before any output can still get a status code.
type attachmentWriter struct {
	c           *drift.Context
	contentType string
	fileName    string
	started     bool
}

func (w *attachmentWriter) start() {
	if w.started {
		return
	}
	w.started = true
	h := w.c.Response.Header()
	h.Set("Content-Type", w.contentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", w.fileName))
	w.c.Response.WriteHeader(http.StatusOK)
}

func (w *attachmentWriter) Write(p []byte) (int, error) {
	w.start()
	return w.c.Response.Write(p)
}
