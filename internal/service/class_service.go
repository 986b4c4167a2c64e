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
	"github.com/noah-isme/dept-portal-api/internal/repository"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
	CountStudents(ctx context.Context, classID string) (int, error)
	ListStudents(ctx context.Context, classID string) ([]models.ClassStudent, error)
}

// ClassService coordinates class operations.
type ClassService struct {
	repo      classRepository
	users     userFinder
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the class service.
func NewClassService(repo classRepository, users userFinder, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, users: users, audit: audit, cache: cache, validator: ensureValidator(validate), logger: logger}
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list classes failed", zap.Error(err))
		return nil, nil, appErrors.Internal(err, "failed to list classes")
	}
	return classes, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a class with the in-charge faculty name.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid class id")
	}
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		s.logger.Error("load class failed", zap.String("class_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load class")
	}
	return detail, nil
}

// Create persists a new class.
func (s *ClassService) Create(ctx context.Context, req models.ClassRequest, actor Actor) (*models.Class, error) {
	req = normalizeClassRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid class payload")
	}
	name := req.Name
	if err := s.ensureUniqueName(ctx, name, ""); err != nil {
		return nil, err
	}
	if err := s.ensureFaculty(ctx, req.InChargeID); err != nil {
		return nil, err
	}

	class := &models.Class{
		ID:           uuid.NewString(),
		Name:         name,
		AcademicYear: req.AcademicYear,
		InChargeID:   req.InChargeID,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class name already exists")
		}
		s.logger.Error("create class failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create class")
	}

	payload, _ := json.Marshal(class)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionClassCreate, "classes", class.ID, nil, payload)
	_ = s.cache.Invalidate(ctx, "dash:*")
	return class, nil
}

// Update modifies a class.
func (s *ClassService) Update(ctx context.Context, id string, req models.ClassRequest, actor Actor) (*models.Class, error) {
	req = normalizeClassRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid class payload")
	}
	class, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	name := req.Name
	if err := s.ensureUniqueName(ctx, name, id); err != nil {
		return nil, err
	}
	if err := s.ensureFaculty(ctx, req.InChargeID); err != nil {
		return nil, err
	}

	oldPayload, _ := json.Marshal(class)
	class.Name = name
	class.AcademicYear = req.AcademicYear
	class.InChargeID = req.InChargeID

	if err := s.repo.Update(ctx, class); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "class name already exists")
		}
		s.logger.Error("update class failed", zap.String("class_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to update class")
	}

	newPayload, _ := json.Marshal(class)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionClassUpdate, "classes", class.ID, oldPayload, newPayload)
	_ = s.cache.Invalidate(ctx, "dash:*")
	return class, nil
}

// Delete removes a class together with its timetable. Classes with students are kept.
func (s *ClassService) Delete(ctx context.Context, id string, actor Actor) error {
	class, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	students, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		s.logger.Error("count class students failed", zap.String("class_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to check class students")
	}
	if students > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "class still has students assigned")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrClassHasStudents) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "class still has students assigned")
		}
		s.logger.Error("delete class failed", zap.String("class_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete class")
	}

	oldPayload, _ := json.Marshal(class)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionClassDelete, "classes", class.ID, oldPayload, nil)
	_ = s.cache.Invalidate(ctx, "dash:*", "report:*")
	return nil
}

// Students lists the roster of a class.
func (s *ClassService) Students(ctx context.Context, id string) ([]models.ClassStudent, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	students, err := s.repo.ListStudents(ctx, id)
	if err != nil {
		s.logger.Error("list class students failed", zap.String("class_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to list class students")
	}
	if students == nil {
		students = []models.ClassStudent{}
	}
	return students, nil
}

func (s *ClassService) load(ctx context.Context, id string) (*models.Class, error) {
	return loadClass(ctx, s.repo, s.logger, id)
}

// loadClass resolves a class ID into the stored class.
func loadClass(ctx context.Context, classes classFinder, logger *zap.Logger, id string) (*models.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid class id")
	}
	class, err := classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		logger.Error("load class failed", zap.String("class_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load class")
	}
	return class, nil
}

func (s *ClassService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		s.logger.Error("check class name failed", zap.Error(err))
		return appErrors.Internal(err, "failed to check class name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "class name already exists")
	}
	return nil
}

func (s *ClassService) ensureFaculty(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	return ensureFacultyUser(ctx, s.users, s.logger, *id)
}

func ensureFacultyUser(ctx context.Context, users userFinder, logger *zap.Logger, id string) error {
	user, err := users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "faculty not found")
		}
		logger.Error("load faculty failed", zap.String("faculty_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to load faculty")
	}
	if user.Role != models.RoleFaculty {
		return appErrors.Clone(appErrors.ErrValidation, "user is not a faculty member")
	}
	return nil
}

func normalizeClassRequest(req models.ClassRequest) models.ClassRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.AcademicYear = strings.TrimSpace(req.AcademicYear)
	return req
}
