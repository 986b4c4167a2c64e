package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	FindDetailByID(ctx context.Context, id string) (*models.SubjectDetail, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// SubjectService manages subject catalogue operations.
type SubjectService struct {
	repo      subjectRepository
	classes   classFinder
	users     userFinder
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service instance.
func NewSubjectService(repo subjectRepository, classes classFinder, users userFinder, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, classes: classes, users: users, audit: audit, cache: cache, validator: ensureValidator(validate), logger: logger}
}

// List returns subjects filtered by class or faculty.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list subjects failed", zap.Error(err))
		return nil, nil, appErrors.Internal(err, "failed to list subjects")
	}
	return subjects, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a subject by id.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.SubjectDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid subject id")
	}
	subject, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		s.logger.Error("load subject failed", zap.String("subject_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	return subject, nil
}

// Create registers a subject for a class.
func (s *SubjectService) Create(ctx context.Context, req models.SubjectRequest, actor Actor) (*models.Subject, error) {
	req = normalizeSubjectRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid subject payload")
	}
	code := req.Code
	if err := s.ensureUniqueCode(ctx, code, ""); err != nil {
		return nil, err
	}
	if err := s.ensureReferences(ctx, req); err != nil {
		return nil, err
	}

	subject := &models.Subject{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      req.Name,
		ClassID:   req.ClassID,
		FacultyID: req.FacultyID,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
		}
		s.logger.Error("create subject failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create subject")
	}

	payload, _ := json.Marshal(subject)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSubjectCreate, "subjects", subject.ID, nil, payload)
	_ = s.cache.Invalidate(ctx, "dash:*")
	return subject, nil
}

// Update modifies a subject.
func (s *SubjectService) Update(ctx context.Context, id string, req models.SubjectRequest, actor Actor) (*models.Subject, error) {
	req = normalizeSubjectRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid subject payload")
	}
	subject, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	code := req.Code
	if err := s.ensureUniqueCode(ctx, code, id); err != nil {
		return nil, err
	}
	if err := s.ensureReferences(ctx, req); err != nil {
		return nil, err
	}

	oldPayload, _ := json.Marshal(subject)
	subject.Code = code
	subject.Name = req.Name
	subject.ClassID = req.ClassID
	subject.FacultyID = req.FacultyID

	if err := s.repo.Update(ctx, subject); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
		}
		s.logger.Error("update subject failed", zap.String("subject_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to update subject")
	}

	newPayload, _ := json.Marshal(subject)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSubjectUpdate, "subjects", subject.ID, oldPayload, newPayload)
	_ = s.cache.Invalidate(ctx, "dash:*", "report:*")
	return subject, nil
}

// Delete removes a subject and clears the timetable slots that referenced it.
func (s *SubjectService) Delete(ctx context.Context, id string, actor Actor) error {
	subject, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		s.logger.Error("delete subject failed", zap.String("subject_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete subject")
	}

	oldPayload, _ := json.Marshal(subject)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSubjectDelete, "subjects", subject.ID, oldPayload, nil)
	_ = s.cache.Invalidate(ctx, "dash:*", "report:*")
	return nil
}

func (s *SubjectService) load(ctx context.Context, id string) (*models.Subject, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid subject id")
	}
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		s.logger.Error("load subject failed", zap.String("subject_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	return subject, nil
}

func (s *SubjectService) ensureUniqueCode(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		s.logger.Error("check subject code failed", zap.Error(err))
		return appErrors.Internal(err, "failed to check subject code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	}
	return nil
}

func (s *SubjectService) ensureReferences(ctx context.Context, req models.SubjectRequest) error {
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "class not found")
		}
		s.logger.Error("load class failed", zap.String("class_id", req.ClassID), zap.Error(err))
		return appErrors.Internal(err, "failed to load class")
	}
	return ensureFacultyUser(ctx, s.users, s.logger, req.FacultyID)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// loadClassSubject resolves a class and a subject taught in it.
func loadClassSubject(ctx context.Context, classes classFinder, subjects subjectFinder, logger *zap.Logger, classID, subjectID string) (*models.Class, *models.Subject, error) {
	class, err := loadClass(ctx, classes, logger, classID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := uuid.Parse(subjectID); err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid subject id")
	}
	subject, err := subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		logger.Error("load subject failed", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, nil, appErrors.Internal(err, "failed to load subject")
	}
	if subject.ClassID != class.ID {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "subject does not belong to class")
	}
	return class, subject, nil
}

// requireSubjectStaff allows admins and the faculty member teaching the subject.
func requireSubjectStaff(actor Actor, subject *models.Subject) error {
	if actor.IsAdmin() || (actor.Role == models.RoleFaculty && actor.ID == subject.FacultyID) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "only the subject faculty can record this subject")
}

func normalizeSubjectRequest(req models.SubjectRequest) models.SubjectRequest {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	return req
}
