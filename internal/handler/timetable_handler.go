package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/service"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type timetableService interface {
	Get(ctx context.Context, classID string) (*models.ClassTimetable, error)
	Save(ctx context.Context, classID string, req models.SaveTimetableRequest) (*models.ClassTimetable, error)
	StudentTimetable(ctx context.Context, studentID string, actor service.Actor) (*models.TimetableView, error)
	FacultyTimetable(ctx context.Context, facultyID string, actor service.Actor) (*models.TimetableView, error)
}

// TimetableHandler exposes class, student and faculty timetables.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs a TimetableHandler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Class godoc
// @Summary Get class timetable
// @Description Stored schedule, one subject id or null per teaching period
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id}/timetable [get]
func (h *TimetableHandler) Class(c *gin.Context) {
	timetable, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Save godoc
// @Summary Replace class timetable
// @Tags Timetable
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Param payload body models.SaveTimetableRequest true "Days keyed by weekday, eight entries each"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/{id}/timetable [put]
func (h *TimetableHandler) Save(c *gin.Context) {
	var req models.SaveTimetableRequest
	if !bindJSON(c, &req) {
		return
	}
	timetable, err := h.service.Save(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// Student godoc
// @Summary Student weekly timetable
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/timetable [get]
func (h *TimetableHandler) Student(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.StudentTimetable(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Faculty godoc
// @Summary Faculty weekly timetable
// @Tags Timetable
// @Produce json
// @Security BearerAuth
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id}/timetable [get]
func (h *TimetableHandler) Faculty(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.FacultyTimetable(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
