package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/dept-portal-api/api/swagger"
	"github.com/noah-isme/dept-portal-api/internal/handler"
	"github.com/noah-isme/dept-portal-api/internal/middleware"
	"github.com/noah-isme/dept-portal-api/internal/repository"
	"github.com/noah-isme/dept-portal-api/internal/service"
	"github.com/noah-isme/dept-portal-api/pkg/cache"
	"github.com/noah-isme/dept-portal-api/pkg/config"
	"github.com/noah-isme/dept-portal-api/pkg/database"
	"github.com/noah-isme/dept-portal-api/pkg/export"
	"github.com/noah-isme/dept-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/dept-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/dept-portal-api/pkg/middleware/requestid"
)

// @title Department Portal API
// @version 1.0.0
// @description Academic department portal: users, classes, timetables, attendance, marks, reports and dashboards.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		cancel()
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	cancel()
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}

	validate := service.NewValidator()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	profileRepo := repository.NewStudentProfileRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	markRepo := repository.NewMarkRepository(db)
	eventRepo := repository.NewEventRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, classRepo, subjectRepo, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(profileRepo, userRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, userRepo, userRepo, cacheSvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, classRepo, userRepo, userRepo, cacheSvc, validate, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, classRepo, subjectRepo, userRepo, cacheSvc, cfg.Timetable.WeekDays, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, classRepo, subjectRepo, userRepo, cacheSvc, metrics, cfg.Reports.CacheTTL, validate, logr)
	marksSvc := service.NewMarksService(markRepo, classRepo, subjectRepo, cacheSvc, metrics, validate, logr)
	reportSvc := service.NewReportService(markRepo, classRepo, subjectRepo, userRepo, cacheSvc, service.ReportServiceConfig{
		CacheTTL:       cfg.Reports.CacheTTL,
		WatchlistLimit: cfg.Reports.WatchlistLimit,
	}, validate, logr)
	eventSvc := service.NewEventService(eventRepo, classRepo, cacheSvc, validate, logr)
	exportSvc := service.NewExportService(export.NewRegistry(cfg.Export.Title), marksSvc, attendanceSvc, subjectRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Users:      userRepo,
		Students:   userRepo,
		Classes:    classRepo,
		Subjects:   subjectRepo,
		InCharge:   classRepo,
		Handled:    subjectRepo,
		Events:     eventSvc,
		Timetable:  timetableSvc,
		Attendance: attendanceSvc,
		Reports:    reportSvc,
		Cache:      cacheSvc,
		Logger:     logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:            cfg.Dashboard.CacheTTL,
			UpcomingEventsLimit: cfg.Dashboard.UpcomingEventsLimit,
		},
	})

	metricsHandler := handler.NewMetricsHandler(metrics, db, logr).WithCache(cacheRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Users:      handler.NewUserHandler(userSvc),
		Students:   handler.NewStudentHandler(studentSvc),
		Classes:    handler.NewClassHandler(classSvc),
		Subjects:   handler.NewSubjectHandler(subjectSvc),
		Timetable:  handler.NewTimetableHandler(timetableSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc),
		Marks:      handler.NewMarksHandler(marksSvc),
		Reports:    handler.NewReportHandler(reportSvc),
		Exports:    handler.NewExportHandler(exportSvc),
		Events:     handler.NewEventHandler(eventSvc),
		Dashboard:  handler.NewDashboardHandler(dashboardSvc),
		Metrics:    metricsHandler,
	}, handler.RouteOptions{
		Authenticate: middleware.JWT(authSvc),
		Audit:        userRepo,
		Logger:       logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
