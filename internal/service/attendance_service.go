package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/cache"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type attendanceRepository interface {
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error
	ClassSheet(ctx context.Context, classID, subjectID string, date time.Time, period int) ([]models.AttendanceSheetRow, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceEntry, error)
	ListByClassSubject(ctx context.Context, classID, subjectID string) ([]models.AttendanceEntry, error)
}

type classRoster interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListStudents(ctx context.Context, classID string) ([]models.ClassStudent, error)
}

// AttendanceService records period attendance and summarises it.
type AttendanceService struct {
	repo      attendanceRepository
	classes   classRoster
	subjects  subjectFinder
	users     userFinder
	cache     *CacheService
	metrics   *MetricsService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, classes classRoster, subjects subjectFinder, users userFinder, cacheSvc *CacheService, metrics *MetricsService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		classes:   classes,
		subjects:  subjects,
		users:     users,
		cache:     cacheSvc,
		metrics:   metrics,
		cacheTTL:  cacheTTL,
		validator: ensureValidator(validate),
		logger:    logger,
	}
}

// SaveBatch upserts the marks of one class period and returns the refreshed sheet.
func (s *AttendanceService) SaveBatch(ctx context.Context, req models.SaveAttendanceRequest, actor Actor) ([]models.AttendanceSheetRow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid attendance payload")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance date")
	}
	_, subject, err := loadClassSubject(ctx, s.classes, s.subjects, s.logger, req.ClassID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if err := requireSubjectStaff(actor, subject); err != nil {
		return nil, err
	}

	members, err := s.rosterSet(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	var details []appErrors.FieldError
	for i, entry := range req.Entries {
		if !members[entry.StudentID] {
			details = append(details, appErrors.FieldError{Field: fmt.Sprintf("Entries[%d].StudentID", i), Rule: "class_member"})
		}
	}
	if len(details) > 0 {
		appErr := appErrors.Clone(appErrors.ErrValidation, "students must belong to the class")
		appErr.Details = details
		return nil, appErr
	}

	var markedBy *string
	if actor.ID != "" {
		markedBy = &actor.ID
	}
	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		records = append(records, models.AttendanceRecord{
			ID:        uuid.NewString(),
			StudentID: entry.StudentID,
			SubjectID: req.SubjectID,
			ClassID:   req.ClassID,
			Date:      date,
			Period:    req.Period,
			Present:   *entry.Present,
			MarkedBy:  markedBy,
		})
	}
	if err := s.repo.BulkUpsert(ctx, records); err != nil {
		s.logger.Error("save attendance failed",
			zap.String("class_id", req.ClassID),
			zap.String("subject_id", req.SubjectID),
			zap.Error(err))
		return nil, appErrors.Internal(err, "failed to save attendance")
	}
	s.metrics.RecordAttendanceSaved(len(records))
	_ = s.cache.Invalidate(ctx, cache.Key("report", "attendance", req.ClassID, req.SubjectID), "dash:*")

	return s.sheet(ctx, req.ClassID, req.SubjectID, date, req.Period)
}

// ClassSheet returns the class roster with the mark of one subject period.
func (s *AttendanceService) ClassSheet(ctx context.Context, query models.AttendanceQuery) ([]models.AttendanceSheetRow, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid attendance query")
	}
	date, err := parseDate(query.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance date")
	}
	if _, _, err := loadClassSubject(ctx, s.classes, s.subjects, s.logger, query.ClassID, query.SubjectID); err != nil {
		return nil, err
	}
	return s.sheet(ctx, query.ClassID, query.SubjectID, date, query.Period)
}

// StudentSummary groups a student's attendance by subject.
func (s *AttendanceService) StudentSummary(ctx context.Context, studentID string, actor Actor) (*models.StudentAttendanceSummary, error) {
	if err := requireStudentAccess(actor, studentID); err != nil {
		return nil, err
	}
	if _, err := loadStudent(ctx, s.users, s.logger, studentID); err != nil {
		return nil, err
	}
	return s.studentSummary(ctx, studentID)
}

func (s *AttendanceService) studentSummary(ctx context.Context, studentID string) (*models.StudentAttendanceSummary, error) {
	entries, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("list student attendance failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load attendance")
	}
	summary := SummariseStudentAttendance(studentID, entries)
	return &summary, nil
}

// ClassSubjectReport reports every student's attendance ratio for a subject. The bool reports a cache hit.
func (s *AttendanceService) ClassSubjectReport(ctx context.Context, classID, subjectID string) (*models.ClassSubjectAttendance, bool, error) {
	if _, _, err := loadClassSubject(ctx, s.classes, s.subjects, s.logger, classID, subjectID); err != nil {
		return nil, false, err
	}
	key := cache.Key("report", "attendance", classID, subjectID)
	return cachedLookup(ctx, s.cache, key, s.cacheTTL, func(ctx context.Context) (*models.ClassSubjectAttendance, error) {
		roster, err := s.classes.ListStudents(ctx, classID)
		if err != nil {
			s.logger.Error("list class students failed", zap.String("class_id", classID), zap.Error(err))
			return nil, appErrors.Internal(err, "failed to load class students")
		}
		entries, err := s.repo.ListByClassSubject(ctx, classID, subjectID)
		if err != nil {
			s.logger.Error("list subject attendance failed",
				zap.String("class_id", classID),
				zap.String("subject_id", subjectID),
				zap.Error(err))
			return nil, appErrors.Internal(err, "failed to load attendance")
		}
		report := SummariseClassSubjectAttendance(classID, subjectID, roster, entries)
		return &report, nil
	})
}

func (s *AttendanceService) sheet(ctx context.Context, classID, subjectID string, date time.Time, period int) ([]models.AttendanceSheetRow, error) {
	rows, err := s.repo.ClassSheet(ctx, classID, subjectID, date, period)
	if err != nil {
		s.logger.Error("load attendance sheet failed", zap.String("class_id", classID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load attendance")
	}
	if rows == nil {
		rows = []models.AttendanceSheetRow{}
	}
	return rows, nil
}

func (s *AttendanceService) rosterSet(ctx context.Context, classID string) (map[string]bool, error) {
	roster, err := s.classes.ListStudents(ctx, classID)
	if err != nil {
		s.logger.Error("list class students failed", zap.String("class_id", classID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load class students")
	}
	members := make(map[string]bool, len(roster))
	for _, student := range roster {
		members[student.ID] = true
	}
	return members, nil
}
