package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/service"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type attendanceService interface {
	SaveBatch(ctx context.Context, req models.SaveAttendanceRequest, actor service.Actor) ([]models.AttendanceSheetRow, error)
	ClassSheet(ctx context.Context, query models.AttendanceQuery) ([]models.AttendanceSheetRow, error)
	StudentSummary(ctx context.Context, studentID string, actor service.Actor) (*models.StudentAttendanceSummary, error)
	ClassSubjectReport(ctx context.Context, classID, subjectID string) (*models.ClassSubjectAttendance, bool, error)
}

// AttendanceHandler exposes attendance marking and summaries.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Save godoc
// @Summary Mark attendance for a class period
// @Description Upserts one record per student for the subject, date and period
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SaveAttendanceRequest true "Attendance batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Save(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.SaveAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	rows, err := h.service.SaveBatch(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Sheet godoc
// @Summary Class attendance sheet for one period
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param class_id query string true "Class ID"
// @Param subject_id query string true "Subject ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param period query int true "Period (1-8)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	var query models.AttendanceQuery
	if !bindQuery(c, &query) {
		return
	}
	rows, err := h.service.ClassSheet(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Student godoc
// @Summary Student attendance summary
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance [get]
func (h *AttendanceHandler) Student(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	summary, err := h.service.StudentSummary(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Report godoc
// @Summary Class subject attendance report
// @Description Per-student ratios plus the subject-wide ratio. Cached.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param class_id query string true "Class ID"
// @Param subject_id query string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /reports/attendance [get]
func (h *AttendanceHandler) Report(c *gin.Context) {
	report, hit, err := h.service.ClassSubjectReport(c.Request.Context(), c.Query("class_id"), c.Query("subject_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, report, hit)
}
