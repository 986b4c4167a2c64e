package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/service"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type exportService interface {
	Marks(ctx context.Context, query models.ExportMarksQuery) (*service.ExportResult, error)
	Attendance(ctx context.Context, query models.ExportAttendanceQuery) (*service.ExportResult, error)
}

// ExportHandler streams generated documents.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Marks godoc
// @Summary Download a marks sheet
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param class_id query string true "Class ID"
// @Param subject_id query string true "Subject ID"
// @Param assessment query string false "Assessment name"
// @Param format query string false "csv, pdf or xlsx (default csv)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /exports/marks [get]
func (h *ExportHandler) Marks(c *gin.Context) {
	var query models.ExportMarksQuery
	if !bindQuery(c, &query) {
		return
	}
	result, err := h.service.Marks(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Data)
}

// Attendance godoc
// @Summary Download a class subject attendance report
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param class_id query string true "Class ID"
// @Param subject_id query string true "Subject ID"
// @Param format query string false "csv, pdf or xlsx (default csv)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /exports/attendance [get]
func (h *ExportHandler) Attendance(c *gin.Context) {
	var query models.ExportAttendanceQuery
	if !bindQuery(c, &query) {
		return
	}
	result, err := h.service.Attendance(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Data)
}
