package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type studentProfileRepository interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.StudentProfile, error)
	Upsert(ctx context.Context, profile *models.StudentProfile) error
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// StudentService manages the bio students keep about themselves.
type StudentService struct {
	profiles  studentProfileRepository
	users     userFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(profiles studentProfileRepository, users userFinder, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{profiles: profiles, users: users, validator: ensureValidator(validate), logger: logger}
}

// GetBio returns the bio of a student. A student without a saved bio gets an empty one.
func (s *StudentService) GetBio(ctx context.Context, studentID string, actor Actor) (*models.StudentProfile, error) {
	if err := requireSelfOrAdmin(actor, studentID); err != nil {
		return nil, err
	}
	if _, err := loadStudent(ctx, s.users, s.logger, studentID); err != nil {
		return nil, err
	}
	profile, err := s.profiles.FindByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.StudentProfile{StudentID: studentID}, nil
		}
		s.logger.Error("load student bio failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load student bio")
	}
	return profile, nil
}

// SaveBio creates or replaces the bio of a student.
func (s *StudentService) SaveBio(ctx context.Context, studentID string, req models.StudentBioRequest, actor Actor) (*models.StudentProfile, error) {
	if err := requireSelfOrAdmin(actor, studentID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student bio payload")
	}
	if _, err := loadStudent(ctx, s.users, s.logger, studentID); err != nil {
		return nil, err
	}

	profile := &models.StudentProfile{
		StudentID:     studentID,
		Phone:         trimmed(req.Phone),
		Address:       trimmed(req.Address),
		GuardianName:  trimmed(req.GuardianName),
		GuardianPhone: trimmed(req.GuardianPhone),
		BloodGroup:    req.BloodGroup,
		Bio:           trimmed(req.Bio),
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date_of_birth must be YYYY-MM-DD")
		}
		profile.DateOfBirth = &dob
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		s.logger.Error("save student bio failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to save student bio")
	}
	return profile, nil
}

// loadStudent resolves a user ID that must belong to a student.
func loadStudent(ctx context.Context, users userFinder, logger *zap.Logger, studentID string) (*models.User, error) {
	if _, err := uuid.Parse(studentID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student id")
	}
	user, err := users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		logger.Error("load student failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return user, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
