package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/cache"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type markRepository interface {
	BulkUpsert(ctx context.Context, records []models.MarkRecord) error
	List(ctx context.Context, filter models.MarkFilter) ([]models.MarkEntry, error)
	ListAssessments(ctx context.Context, classID, subjectID string) ([]string, error)
}

// MarksService records assessment scores.
type MarksService struct {
	repo      markRepository
	classes   classRoster
	subjects  subjectFinder
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarksService constructs the marks service.
func NewMarksService(repo markRepository, classes classRoster, subjects subjectFinder, cacheSvc *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MarksService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarksService{repo: repo, classes: classes, subjects: subjects, cache: cacheSvc, metrics: metrics, validator: ensureValidator(validate), logger: logger}
}

// Save upserts one assessment for a class subject and returns the resulting sheet.
func (s *MarksService) Save(ctx context.Context, req models.SaveMarksRequest, actor Actor) ([]models.MarkSheetRow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid marks payload")
	}
	assessment := strings.TrimSpace(req.Assessment)
	if assessment == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assessment is required")
	}
	_, subject, err := loadClassSubject(ctx, s.classes, s.subjects, s.logger, req.ClassID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if err := requireSubjectStaff(actor, subject); err != nil {
		return nil, err
	}

	roster, err := s.classes.ListStudents(ctx, req.ClassID)
	if err != nil {
		s.logger.Error("list class students failed", zap.String("class_id", req.ClassID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load class students")
	}
	members := make(map[string]bool, len(roster))
	for _, student := range roster {
		members[student.ID] = true
	}

	maxParam := strconv.FormatFloat(req.MaxMarks, 'f', -1, 64)
	var details []appErrors.FieldError
	for i, entry := range req.Entries {
		if !members[entry.StudentID] {
			details = append(details, appErrors.FieldError{Field: fmt.Sprintf("Entries[%d].StudentID", i), Rule: "class_member"})
		}
		if *entry.MarksObtained > req.MaxMarks {
			details = append(details, appErrors.FieldError{Field: fmt.Sprintf("Entries[%d].MarksObtained", i), Rule: "lte", Param: maxParam})
		}
	}
	if len(details) > 0 {
		appErr := appErrors.Clone(appErrors.ErrValidation, "invalid marks payload")
		appErr.Details = details
		return nil, appErr
	}

	records := make([]models.MarkRecord, 0, len(req.Entries))
	for _, entry := range req.Entries {
		records = append(records, models.MarkRecord{
			ID:            uuid.NewString(),
			StudentID:     entry.StudentID,
			SubjectID:     req.SubjectID,
			ClassID:       req.ClassID,
			Assessment:    assessment,
			MarksObtained: *entry.MarksObtained,
			MaxMarks:      req.MaxMarks,
		})
	}
	if err := s.repo.BulkUpsert(ctx, records); err != nil {
		s.logger.Error("save marks failed",
			zap.String("class_id", req.ClassID),
			zap.String("subject_id", req.SubjectID),
			zap.String("assessment", assessment),
			zap.Error(err))
		return nil, appErrors.Internal(err, "failed to save marks")
	}
	s.metrics.RecordMarksSaved(len(records))
	_ = s.cache.Invalidate(ctx,
		"report:*:"+req.ClassID+":"+req.SubjectID+":*",
		cache.Pattern("report", "performance"),
		"dash:*",
	)

	return s.sheet(ctx, models.MarkFilter{ClassID: req.ClassID, SubjectID: req.SubjectID, Assessment: assessment})
}

// Sheet lists marks of a class subject with percentage and grade, optionally for one assessment.
func (s *MarksService) Sheet(ctx context.Context, query models.MarksQuery) ([]models.MarkSheetRow, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid marks query")
	}
	if _, _, err := loadClassSubject(ctx, s.classes, s.subjects, s.logger, query.ClassID, query.SubjectID); err != nil {
		return nil, err
	}
	return s.sheet(ctx, models.MarkFilter{ClassID: query.ClassID, SubjectID: query.SubjectID, Assessment: strings.TrimSpace(query.Assessment)})
}

// Assessments lists the distinct assessment names recorded for a class subject.
func (s *MarksService) Assessments(ctx context.Context, classID, subjectID string) ([]string, error) {
	if _, _, err := loadClassSubject(ctx, s.classes, s.subjects, s.logger, classID, subjectID); err != nil {
		return nil, err
	}
	names, err := s.repo.ListAssessments(ctx, classID, subjectID)
	if err != nil {
		s.logger.Error("list assessments failed", zap.String("class_id", classID), zap.String("subject_id", subjectID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to list assessments")
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *MarksService) sheet(ctx context.Context, filter models.MarkFilter) ([]models.MarkSheetRow, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list marks failed", zap.String("class_id", filter.ClassID), zap.String("subject_id", filter.SubjectID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load marks")
	}
	return MarkSheet(entries), nil
}

// MarkSheet renders entries with percentage and grade letter.
func MarkSheet(entries []models.MarkEntry) []models.MarkSheetRow {
	rows := make([]models.MarkSheetRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, models.MarkSheetRow{
			StudentID:     entry.StudentID,
			StudentName:   entry.StudentName,
			RollNumber:    entry.RollNumber,
			Assessment:    entry.Assessment,
			MarksObtained: entry.MarksObtained,
			MaxMarks:      entry.MaxMarks,
			Percentage:    roundTo(Percentage(entry.MarksObtained, entry.MaxMarks), 2),
			Grade:         Grade(entry.MarksObtained, entry.MaxMarks),
		})
	}
	return rows
}
