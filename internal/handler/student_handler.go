package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/service"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type studentBioService interface {
	GetBio(ctx context.Context, studentID string, actor service.Actor) (*models.StudentProfile, error)
	SaveBio(ctx context.Context, studentID string, req models.StudentBioRequest, actor service.Actor) (*models.StudentProfile, error)
}

// StudentHandler exposes the student bio endpoints.
type StudentHandler struct {
	students studentBioService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentBioService) *StudentHandler {
	return &StudentHandler{students: students}
}

// GetBio godoc
// @Summary Get student bio
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/bio [get]
func (h *StudentHandler) GetBio(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	profile, err := h.students.GetBio(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// SaveBio godoc
// @Summary Save student bio
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.StudentBioRequest true "Bio payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/bio [put]
func (h *StudentHandler) SaveBio(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.StudentBioRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.students.SaveBio(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
