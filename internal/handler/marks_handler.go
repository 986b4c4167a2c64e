package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/service"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type marksService interface {
	Save(ctx context.Context, req models.SaveMarksRequest, actor service.Actor) ([]models.MarkSheetRow, error)
	Sheet(ctx context.Context, query models.MarksQuery) ([]models.MarkSheetRow, error)
	Assessments(ctx context.Context, classID, subjectID string) ([]string, error)
}

// MarksHandler exposes mark entry and mark sheets.
type MarksHandler struct {
	service marksService
}

// NewMarksHandler constructs a MarksHandler.
func NewMarksHandler(svc marksService) *MarksHandler {
	return &MarksHandler{service: svc}
}

// Save godoc
// @Summary Enter marks for an assessment
// @Tags Marks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SaveMarksRequest true "Marks batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /marks [post]
func (h *MarksHandler) Save(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.SaveMarksRequest
	if !bindJSON(c, &req) {
		return
	}
	rows, err := h.service.Save(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Sheet godoc
// @Summary Mark sheet with percentage and grade
// @Tags Marks
// @Produce json
// @Security BearerAuth
// @Param class_id query string true "Class ID"
// @Param subject_id query string true "Subject ID"
// @Param assessment query string false "Assessment name"
// @Success 200 {object} response.Envelope
// @Router /marks [get]
func (h *MarksHandler) Sheet(c *gin.Context) {
	var query models.MarksQuery
	if !bindQuery(c, &query) {
		return
	}
	rows, err := h.service.Sheet(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Assessments godoc
// @Summary Distinct assessment names of a class subject
// @Tags Marks
// @Produce json
// @Security BearerAuth
// @Param class_id query string true "Class ID"
// @Param subject_id query string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /marks/assessments [get]
func (h *MarksHandler) Assessments(c *gin.Context) {
	names, err := h.service.Assessments(c.Request.Context(), c.Query("class_id"), c.Query("subject_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, nil)
}
