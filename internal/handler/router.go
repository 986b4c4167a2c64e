package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/middleware"
	"github.com/noah-isme/dept-portal-api/internal/models"
)

// Handlers groups every API handler mounted under the API prefix.
type Handlers struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Students   *StudentHandler
	Classes    *ClassHandler
	Subjects   *SubjectHandler
	Timetable  *TimetableHandler
	Attendance *AttendanceHandler
	Marks      *MarksHandler
	Reports    *ReportHandler
	Exports    *ExportHandler
	Events     *EventHandler
	Dashboard  *DashboardHandler
	Metrics    *MetricsHandler
}

// RouteOptions carries the cross-cutting middleware dependencies of the API routes.
type RouteOptions struct {
	Authenticate gin.HandlerFunc
	Audit        middleware.AuditWriter
	Logger       *zap.Logger
}

// RegisterRoutes mounts the API on r.
func RegisterRoutes(r gin.IRouter, h Handlers, opts RouteOptions) {
	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty)
	adminOrSelf := middleware.RolesOrSelf(models.RoleAdmin)
	staffOrSelf := middleware.RolesOrSelf(models.RoleAdmin, models.RoleFaculty)

	r.POST("/auth/login", h.Auth.Login)

	api := r.Group("", opts.Authenticate)
	api.GET("/me", h.Auth.Me)

	users := api.Group("/users", admin)
	users.GET("", h.Users.List)
	users.POST("", h.Users.Create)
	users.GET("/:id", h.Users.Get)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete)

	students := api.Group("/students/:id")
	students.GET("/bio", adminOrSelf, h.Students.GetBio)
	students.PUT("/bio", adminOrSelf, h.Students.SaveBio)
	students.GET("/timetable", staffOrSelf, h.Timetable.Student)
	students.GET("/attendance", staffOrSelf, h.Attendance.Student)
	students.GET("/performance", staffOrSelf, h.Reports.Student)

	classes := api.Group("/classes")
	classes.GET("", h.Classes.List)
	classes.POST("", admin, h.Classes.Create)
	classes.GET("/:id", h.Classes.Get)
	classes.PUT("/:id", admin, h.Classes.Update)
	classes.DELETE("/:id", admin, h.Classes.Delete)
	classes.GET("/:id/students", staff, h.Classes.Students)
	classes.GET("/:id/timetable", h.Timetable.Class)
	classes.PUT("/:id/timetable", admin, h.Timetable.Save)

	subjects := api.Group("/subjects")
	subjects.GET("", h.Subjects.List)
	subjects.POST("", admin, h.Subjects.Create)
	subjects.GET("/:id", h.Subjects.Get)
	subjects.PUT("/:id", admin, h.Subjects.Update)
	subjects.DELETE("/:id", admin, h.Subjects.Delete)

	api.GET("/faculty/:id/timetable", adminOrSelf, h.Timetable.Faculty)

	api.POST("/attendance", staff, h.Attendance.Save)
	api.GET("/attendance", staff, h.Attendance.Sheet)

	api.POST("/marks", staff, h.Marks.Save)
	api.GET("/marks", staff, h.Marks.Sheet)
	api.GET("/marks/assessments", staff, h.Marks.Assessments)

	reports := api.Group("/reports", staff)
	reports.GET("/attendance", h.Attendance.Report)
	reports.GET("/distribution", h.Reports.Distribution)
	reports.GET("/performance", h.Reports.Performance)

	exports := api.Group("/exports", staff)
	exports.GET("/marks", h.Exports.Marks)
	exports.GET("/attendance", h.Exports.Attendance)

	events := api.Group("/events")
	events.GET("", h.Events.List)
	events.POST("", staff, middleware.Audit(opts.Audit, opts.Logger, models.AuditActionEventCreate, "events"), h.Events.Create)
	events.DELETE("/:id", admin, middleware.Audit(opts.Audit, opts.Logger, models.AuditActionEventDelete, "events"), h.Events.Delete)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/admin", admin, h.Dashboard.Admin)
	dashboard.GET("/faculty", middleware.RequireRoles(models.RoleFaculty), h.Dashboard.Faculty)
	dashboard.GET("/student", middleware.RequireRoles(models.RoleStudent), h.Dashboard.Student)

	if h.Metrics != nil {
		api.GET("/metrics/summary", admin, h.Metrics.Summary)
	}
}
