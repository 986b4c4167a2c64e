package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/service"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type reportService interface {
	Distribution(ctx context.Context, query models.MarksQuery) (*models.MarksDistribution, bool, error)
	PerformanceFlags(ctx context.Context, query models.MarksQuery) (*models.PerformanceFlags, bool, error)
	StudentPerformance(ctx context.Context, studentID string, actor service.Actor) (*models.StudentPerformance, bool, error)
}

// ReportHandler exposes the cached marks aggregations.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Distribution godoc
// @Summary Score distribution
// @Description Counts per band 0-39, 40-49, 50-59, 60-69, 70-79, 80-89, 90-100
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param class_id query string true "Class ID"
// @Param subject_id query string true "Subject ID"
// @Param assessment query string false "Assessment name"
// @Success 200 {object} response.Envelope
// @Router /reports/distribution [get]
func (h *ReportHandler) Distribution(c *gin.Context) {
	var query models.MarksQuery
	if !bindQuery(c, &query) {
		return
	}
	result, hit, err := h.reports.Distribution(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, result, hit)
}

// Performance godoc
// @Summary Students to watch, top and average performers
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param class_id query string true "Class ID"
// @Param subject_id query string true "Subject ID"
// @Param assessment query string false "Assessment name"
// @Success 200 {object} response.Envelope
// @Router /reports/performance [get]
func (h *ReportHandler) Performance(c *gin.Context) {
	var query models.MarksQuery
	if !bindQuery(c, &query) {
		return
	}
	result, hit, err := h.reports.PerformanceFlags(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, result, hit)
}

// Student godoc
// @Summary Student performance summary
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/performance [get]
func (h *ReportHandler) Student(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, hit, err := h.reports.StudentPerformance(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, result, hit)
}
