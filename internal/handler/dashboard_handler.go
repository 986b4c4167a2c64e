package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/service"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
	"github.com/noah-isme/dept-portal-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context, actor service.Actor) (*dto.AdminDashboardResponse, bool, error)
	Faculty(ctx context.Context, actor service.Actor) (*dto.FacultyDashboardResponse, bool, error)
	Student(ctx context.Context, actor service.Actor) (*dto.StudentDashboardResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Admin godoc
// @Summary Admin dashboard
// @Description Department totals and upcoming events
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	h.serve(c, func(ctx context.Context, actor service.Actor) (interface{}, bool, error) {
		return h.service.Admin(ctx, actor)
	})
}

// Faculty godoc
// @Summary Faculty dashboard
// @Description In-charge classes, handled subjects, today's timetable and watch-list counts
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/faculty [get]
func (h *DashboardHandler) Faculty(c *gin.Context) {
	h.serve(c, func(ctx context.Context, actor service.Actor) (interface{}, bool, error) {
		return h.service.Faculty(ctx, actor)
	})
}

// Student godoc
// @Summary Student dashboard
// @Description Attendance, performance, today's timetable and upcoming class events
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	h.serve(c, func(ctx context.Context, actor service.Actor) (interface{}, bool, error) {
		return h.service.Student(ctx, actor)
	})
}

func (h *DashboardHandler) serve(c *gin.Context, load func(context.Context, service.Actor) (interface{}, bool, error)) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	summary, hit, err := load(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondCached(c, summary, hit)
}
