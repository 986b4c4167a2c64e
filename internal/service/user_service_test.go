package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/cache"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

func newTestUserService(db *fakeDB, cacheRepo *stubCacheRepo) *UserService {
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), cacheRepo != nil)
	return NewUserService(&fakeUsers{db: db}, &fakeClasses{db: db}, &fakeSubjects{db: db}, cacheSvc, nil, zap.NewNop())
}

func TestUserServiceList(t *testing.T) {
	db := newFakeDB()
	svc := newTestUserService(db, nil)

	role := models.RoleStudent
	users, page, err := svc.List(context.Background(), models.UserFilter{Role: &role, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, users, 3)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 10, page.PageSize)
}

func TestUserServiceCreateStudent(t *testing.T) {
	db := newFakeDB()
	cacheRepo := &stubCacheRepo{store: map[string][]byte{"dash:admin:2024-06-03": []byte(`{}`)}}
	svc := newTestUserService(db, cacheRepo)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		Email:      "  NEW.Student@Dept.Test ",
		Password:   "secret1",
		FullName:   "New Student",
		Role:       models.RoleStudent,
		ClassID:    strPtr(classAID),
		RollNumber: strPtr("03"),
	}, adminActor)
	require.NoError(t, err)

	assert.Equal(t, "new.student@dept.test", user.Email)
	assert.True(t, user.Active)
	require.NotNil(t, user.ClassID)
	assert.Equal(t, classAID, *user.ClassID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	require.Len(t, db.audits, 1)
	assert.Equal(t, models.AuditActionUserCreate, db.audits[0].Action)
	assert.Empty(t, cacheRepo.store, "dashboards should be invalidated")
}

func TestUserServiceCreateStudentRequiresClass(t *testing.T) {
	svc := newTestUserService(newFakeDB(), nil)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{Email: "x@dept.test", Password: "secret1", FullName: "X", Role: models.RoleStudent}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), models.CreateUserRequest{Email: "x@dept.test", Password: "secret1", FullName: "X", Role: models.RoleStudent, ClassID: strPtr(missingID)}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceCreateRejectsBlankName(t *testing.T) {
	svc := newTestUserService(newFakeDB(), nil)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{Email: " x@dept.test ", Password: "secret1", FullName: "   ", Role: models.RoleFaculty}, adminActor)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, appErrors.FieldError{Field: "FullName", Rule: "required"}, appErr.Details[0])
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	svc := newTestUserService(newFakeDB(), nil)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{Email: "RAVI@dept.test", Password: "secret1", FullName: "Dup", Role: models.RoleFaculty}, adminActor)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, "email already exists", appErrors.FromError(err).Message)
}

func TestUserServiceCreateRejectsUnknownRole(t *testing.T) {
	svc := newTestUserService(newFakeDB(), nil)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{Email: "x@dept.test", Password: "secret1", FullName: "X", Role: "TEACHER"}, adminActor)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "Role", appErr.Details[0].Field)
}

func TestUserServiceGetFacultyAssignments(t *testing.T) {
	svc := newTestUserService(newFakeDB(), nil)

	detail, err := svc.Get(context.Background(), facultyID)
	require.NoError(t, err)
	require.NotNil(t, detail.Assignments)
	require.Len(t, detail.Assignments.InChargeClasses, 1)
	assert.Equal(t, "CSE-A", detail.Assignments.InChargeClasses[0].Name)
	require.Len(t, detail.Assignments.Subjects, 2)
	assert.Equal(t, "Chemistry", detail.Assignments.Subjects[0].Name)
	assert.Equal(t, "Maths", detail.Assignments.Subjects[1].Name)
}

func TestUserServiceGetStudentHasClassName(t *testing.T) {
	svc := newTestUserService(newFakeDB(), nil)

	detail, err := svc.Get(context.Background(), student1ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Assignments)
	require.NotNil(t, detail.ClassName)
	assert.Equal(t, "CSE-A", *detail.ClassName)
}

func TestUserServiceGetInvalidAndMissing(t *testing.T) {
	svc := newTestUserService(newFakeDB(), nil)

	_, err := svc.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Get(context.Background(), missingID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserServiceUpdateMovesStudent(t *testing.T) {
	db := newFakeDB()
	svc := newTestUserService(db, nil)

	active := false
	user, err := svc.Update(context.Background(), student1ID, models.UpdateUserRequest{
		FullName: strPtr(" Asha R "),
		Active:   &active,
		ClassID:  strPtr(classBID),
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Asha R", user.FullName)
	assert.False(t, user.Active)
	assert.Equal(t, classBID, *db.users[student1ID].ClassID)
	assert.Equal(t, models.RoleStudent, db.users[student1ID].Role)
}

func TestUserServiceUpdateRejectsBlankName(t *testing.T) {
	db := newFakeDB()
	svc := newTestUserService(db, nil)

	_, err := svc.Update(context.Background(), student1ID, models.UpdateUserRequest{FullName: strPtr("  ")}, adminActor)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "FullName", appErr.Details[0].Field)
	assert.Equal(t, "Asha", db.users[student1ID].FullName)
}

func TestUserServiceUpdateClassChangeDropsAttendanceReports(t *testing.T) {
	db := newFakeDB()
	oldKey := cache.Key("report", "attendance", classAID, mathsID)
	newKey := cache.Key("report", "attendance", classBID, "")
	otherKey := cache.Key("report", "marks", classAID, mathsID)
	cacheRepo := &stubCacheRepo{store: map[string][]byte{
		oldKey:   []byte(`{}`),
		newKey:   []byte(`{}`),
		otherKey: []byte(`{}`),
	}}
	svc := newTestUserService(db, cacheRepo)

	_, err := svc.Update(context.Background(), student1ID, models.UpdateUserRequest{ClassID: strPtr(classBID)}, adminActor)
	require.NoError(t, err)
	assert.NotContains(t, cacheRepo.store, oldKey)
	assert.NotContains(t, cacheRepo.store, newKey)
	assert.Contains(t, cacheRepo.store, otherKey)
}

func TestUserServiceUpdateSameClassKeepsAttendanceReports(t *testing.T) {
	db := newFakeDB()
	key := cache.Key("report", "attendance", classAID, "")
	cacheRepo := &stubCacheRepo{store: map[string][]byte{key: []byte(`{}`)}}
	svc := newTestUserService(db, cacheRepo)

	_, err := svc.Update(context.Background(), student1ID, models.UpdateUserRequest{ClassID: strPtr(classAID)}, adminActor)
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.store, key)
}

func TestUserServiceUpdateIgnoresClassForFaculty(t *testing.T) {
	db := newFakeDB()
	svc := newTestUserService(db, nil)

	user, err := svc.Update(context.Background(), facultyID, models.UpdateUserRequest{ClassID: strPtr(classBID)}, adminActor)
	require.NoError(t, err)
	assert.Nil(t, user.ClassID)
}

func TestUserServiceDeleteFacultyStillAssigned(t *testing.T) {
	db := newFakeDB()
	svc := newTestUserService(db, nil)

	err := svc.Delete(context.Background(), facultyID, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
	assert.Contains(t, db.users, facultyID)
}

func TestUserServiceDeleteStudent(t *testing.T) {
	db := newFakeDB()
	svc := newTestUserService(db, nil)

	require.NoError(t, svc.Delete(context.Background(), student2ID, adminActor))
	assert.NotContains(t, db.users, student2ID)
	require.Len(t, db.audits, 1)
	assert.Equal(t, models.AuditActionUserDelete, db.audits[0].Action)
	assert.Equal(t, adminID, *db.audits[0].UserID)
}

func TestUserServiceDeleteSelf(t *testing.T) {
	svc := newTestUserService(newFakeDB(), nil)

	err := svc.Delete(context.Background(), adminID, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
}
