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
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/cache"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindDetailByID(ctx context.Context, id string) (*models.UserDetail, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	CountFacultyReferences(ctx context.Context, facultyID string) (int, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type classLookup interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ListByInCharge(ctx context.Context, facultyID string) ([]models.Class, error)
}

type facultySubjectLister interface {
	ListByFaculty(ctx context.Context, facultyID string) ([]models.Subject, error)
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	classes   classLookup
	subjects  facultySubjectLister
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, classes classLookup, subjects facultySubjectLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, classes: classes, subjects: subjects, cache: cache, validator: ensureValidator(validate), logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID. Faculty members carry their in-charge classes and handled subjects.
func (s *UserService) Get(ctx context.Context, id string) (*models.UserDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid user id")
	}
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		s.logger.Error("load user failed", zap.String("user_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load user")
	}
	if detail.Role == models.RoleFaculty {
		assignments, err := s.facultyAssignments(ctx, id)
		if err != nil {
			return nil, err
		}
		detail.Assignments = assignments
	}
	return detail, nil
}

func (s *UserService) facultyAssignments(ctx context.Context, facultyID string) (*models.FacultyAssignments, error) {
	classes, err := s.classes.ListByInCharge(ctx, facultyID)
	if err != nil {
		s.logger.Error("load in-charge classes failed", zap.String("faculty_id", facultyID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load faculty assignments")
	}
	subjects, err := s.subjects.ListByFaculty(ctx, facultyID)
	if err != nil {
		s.logger.Error("load handled subjects failed", zap.String("faculty_id", facultyID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load faculty assignments")
	}
	if classes == nil {
		classes = []models.Class{}
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return &models.FacultyAssignments{InChargeClasses: classes, Subjects: subjects}, nil
}

// Create adds a new user. Students must reference an existing class.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest, actor Actor) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	req.RollNumber = trimOptional(req.RollNumber)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid create user payload")
	}

	email := req.Email
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("check email failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to check email uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Email:    email,
		FullName: req.FullName,
		Role:     req.Role,
		Active:   true,
	}
	if req.Role == models.RoleStudent {
		if req.ClassID == nil || *req.ClassID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class_id is required for students")
		}
		if err := s.ensureClass(ctx, *req.ClassID); err != nil {
			return nil, err
		}
		user.ClassID = req.ClassID
		user.RollNumber = req.RollNumber
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	user.PasswordHash = string(passwordHash)

	if err := s.repo.Create(ctx, user); err != nil {
		if appErrors.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		s.logger.Error("create user failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create user")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"id": user.ID, "email": user.Email, "role": user.Role, "class_id": user.ClassID})
	s.audit(ctx, actor, models.AuditActionUserCreate, user.ID, nil, newPayload)
	s.invalidateDashboards(ctx)

	return user, nil
}

// Update modifies the mutable user attributes. The role never changes.
func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest, actor Actor) (*models.User, error) {
	req.FullName = trimOptional(req.FullName)
	req.RollNumber = trimOptional(req.RollNumber)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid update payload")
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"full_name": user.FullName, "active": user.Active, "class_id": user.ClassID})
	oldClassID := deref(user.ClassID)

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if user.Role == models.RoleStudent {
		if req.ClassID != nil {
			if err := s.ensureClass(ctx, *req.ClassID); err != nil {
				return nil, err
			}
			user.ClassID = req.ClassID
		}
		if req.RollNumber != nil {
			user.RollNumber = req.RollNumber
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error("update user failed", zap.String("user_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to update user")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"full_name": user.FullName, "active": user.Active, "class_id": user.ClassID})
	s.audit(ctx, actor, models.AuditActionUserUpdate, user.ID, oldPayload, newPayload)
	s.invalidateDashboards(ctx)
	if newClassID := deref(user.ClassID); newClassID != oldClassID {
		s.invalidateRosters(ctx, oldClassID, newClassID)
	}

	return user, nil
}

// Delete removes a user. Faculty still referenced by a class or subject cannot be removed.
func (s *UserService) Delete(ctx context.Context, id string, actor Actor) error {
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if user.ID == actor.ID {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot delete your own account")
	}

	if user.Role == models.RoleFaculty {
		refs, err := s.repo.CountFacultyReferences(ctx, id)
		if err != nil {
			s.logger.Error("count faculty references failed", zap.String("user_id", id), zap.Error(err))
			return appErrors.Internal(err, "failed to check faculty assignments")
		}
		if refs > 0 {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "faculty is still assigned to classes or subjects")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete user failed", zap.String("user_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete user")
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"email": user.Email, "role": user.Role})
	s.audit(ctx, actor, models.AuditActionUserDelete, user.ID, oldPayload, nil)
	s.invalidateDashboards(ctx)
	return nil
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid user id")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		s.logger.Error("load user failed", zap.String("user_id", id), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

func (s *UserService) ensureClass(ctx context.Context, classID string) error {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "class not found")
		}
		s.logger.Error("load class failed", zap.String("class_id", classID), zap.Error(err))
		return appErrors.Internal(err, "failed to load class")
	}
	return nil
}

func (s *UserService) audit(ctx context.Context, actor Actor, action, resourceID string, oldValues, newValues []byte) {
	recordAudit(ctx, s.repo, s.logger, actor, action, "users", resourceID, oldValues, newValues)
}

func (s *UserService) invalidateDashboards(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, "dash:*")
}

// invalidateRosters drops cached attendance reports of classes whose roster changed.
func (s *UserService) invalidateRosters(ctx context.Context, classIDs ...string) {
	patterns := make([]string, 0, len(classIDs))
	for _, id := range classIDs {
		if id != "" {
			patterns = append(patterns, cache.Pattern("report", "attendance", id))
		}
	}
	if len(patterns) > 0 {
		_ = s.cache.Invalidate(ctx, patterns...)
	}
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &trimmed
}

func pagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
