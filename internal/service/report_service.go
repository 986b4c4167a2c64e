package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/cache"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type markLister interface {
	List(ctx context.Context, filter models.MarkFilter) ([]models.MarkEntry, error)
}

// ReportServiceConfig tunes cached report generation.
type ReportServiceConfig struct {
	CacheTTL       time.Duration
	WatchlistLimit int
}

// ReportService builds cached mark aggregations.
type ReportService struct {
	marks     markLister
	classes   classFinder
	subjects  subjectFinder
	users     userFinder
	cache     *CacheService
	cfg       ReportServiceConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(marks markLister, classes classFinder, subjects subjectFinder, users userFinder, cacheSvc *CacheService, cfg ReportServiceConfig, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WatchlistLimit <= 0 {
		cfg.WatchlistLimit = 10
	}
	return &ReportService{marks: marks, classes: classes, subjects: subjects, users: users, cache: cacheSvc, cfg: cfg, validator: ensureValidator(validate), logger: logger}
}

// Distribution buckets the percentages of a class subject into grade bands.
func (s *ReportService) Distribution(ctx context.Context, query models.MarksQuery) (*models.MarksDistribution, bool, error) {
	filter, err := s.resolve(ctx, query)
	if err != nil {
		return nil, false, err
	}
	key := cache.Key("report", "distribution", filter.ClassID, filter.SubjectID, filter.Assessment)
	return cachedLookup(ctx, s.cache, key, s.cfg.CacheTTL, func(ctx context.Context) (*models.MarksDistribution, error) {
		entries, err := s.list(ctx, filter)
		if err != nil {
			return nil, err
		}
		buckets, total := BuildDistribution(entries)
		return &models.MarksDistribution{
			ClassID:    filter.ClassID,
			SubjectID:  filter.SubjectID,
			Assessment: filter.Assessment,
			Buckets:    buckets,
			Total:      total,
		}, nil
	})
}

// PerformanceFlags ranks the marks of a class subject into watch, top and average lists.
func (s *ReportService) PerformanceFlags(ctx context.Context, query models.MarksQuery) (*models.PerformanceFlags, bool, error) {
	filter, err := s.resolve(ctx, query)
	if err != nil {
		return nil, false, err
	}
	key := cache.Key("report", "flags", filter.ClassID, filter.SubjectID, filter.Assessment)
	return cachedLookup(ctx, s.cache, key, s.cfg.CacheTTL, func(ctx context.Context) (*models.PerformanceFlags, error) {
		entries, err := s.list(ctx, filter)
		if err != nil {
			return nil, err
		}
		return s.flags(filter, entries), nil
	})
}

// StudentPerformance summarises a student's marks across every subject.
func (s *ReportService) StudentPerformance(ctx context.Context, studentID string, actor Actor) (*models.StudentPerformance, bool, error) {
	if err := requireStudentAccess(actor, studentID); err != nil {
		return nil, false, err
	}
	if _, err := loadStudent(ctx, s.users, s.logger, studentID); err != nil {
		return nil, false, err
	}
	return cachedLookup(ctx, s.cache, cache.Key("report", "performance", studentID), s.cfg.CacheTTL, func(ctx context.Context) (*models.StudentPerformance, error) {
		return s.studentPerformance(ctx, studentID)
	})
}

func (s *ReportService) studentPerformance(ctx context.Context, studentID string) (*models.StudentPerformance, error) {
	entries, err := s.list(ctx, models.MarkFilter{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	summary := SummarisePerformance(studentID, entries)
	return &summary, nil
}

func (s *ReportService) studentsToWatch(ctx context.Context, classID, subjectID string) (int, error) {
	entries, err := s.list(ctx, models.MarkFilter{ClassID: classID, SubjectID: subjectID})
	if err != nil {
		return 0, err
	}
	return CountStudentsToWatch(entries), nil
}

func (s *ReportService) flags(filter models.MarkFilter, entries []models.MarkEntry) *models.PerformanceFlags {
	watch, top, average := BuildPerformanceFlags(entries, s.cfg.WatchlistLimit)
	return &models.PerformanceFlags{
		ClassID:           filter.ClassID,
		SubjectID:         filter.SubjectID,
		Assessment:        filter.Assessment,
		StudentsToWatch:   watch,
		TopPerformers:     top,
		AveragePerformers: average,
	}
}

func (s *ReportService) resolve(ctx context.Context, query models.MarksQuery) (models.MarkFilter, error) {
	if err := s.validator.Struct(query); err != nil {
		return models.MarkFilter{}, appErrors.Validation(err, "invalid report query")
	}
	if _, _, err := loadClassSubject(ctx, s.classes, s.subjects, s.logger, query.ClassID, query.SubjectID); err != nil {
		return models.MarkFilter{}, err
	}
	return models.MarkFilter{ClassID: query.ClassID, SubjectID: query.SubjectID, Assessment: strings.TrimSpace(query.Assessment)}, nil
}

func (s *ReportService) list(ctx context.Context, filter models.MarkFilter) ([]models.MarkEntry, error) {
	entries, err := s.marks.List(ctx, filter)
	if err != nil {
		s.logger.Error("list marks failed",
			zap.String("class_id", filter.ClassID),
			zap.String("subject_id", filter.SubjectID),
			zap.String("student_id", filter.StudentID),
			zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load marks")
	}
	return entries, nil
}
