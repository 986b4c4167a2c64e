package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

func newTestSubjectService(db *fakeDB, cacheRepo *stubCacheRepo) *SubjectService {
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), cacheRepo != nil)
	users := &fakeUsers{db: db}
	return NewSubjectService(&fakeSubjects{db: db}, &fakeClasses{db: db}, users, users, cacheSvc, nil, zap.NewNop())
}

func TestSubjectServiceCreate(t *testing.T) {
	db := newFakeDB()
	svc := newTestSubjectService(db, nil)

	subject, err := svc.Create(context.Background(), models.SubjectRequest{Code: " cs201 ", Name: "Data Structures", ClassID: classAID, FacultyID: facultyID}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "CS201", subject.Code)
	assert.Contains(t, db.subjects, subject.ID)
	require.Len(t, db.audits, 1)
	assert.Equal(t, models.AuditActionSubjectCreate, db.audits[0].Action)
}

func TestSubjectServiceCreateDuplicateCode(t *testing.T) {
	svc := newTestSubjectService(newFakeDB(), nil)

	_, err := svc.Create(context.Background(), models.SubjectRequest{Code: "ma101", Name: "Maths II", ClassID: classAID, FacultyID: facultyID}, adminActor)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, "subject code already exists", appErrors.FromError(err).Message)
}

func TestSubjectServiceReferences(t *testing.T) {
	svc := newTestSubjectService(newFakeDB(), nil)

	_, err := svc.Create(context.Background(), models.SubjectRequest{Code: "X1", Name: "X", ClassID: missingID, FacultyID: facultyID}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), models.SubjectRequest{Code: "X1", Name: "X", ClassID: classAID, FacultyID: student1ID}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), models.SubjectRequest{Code: "X1", Name: "X", ClassID: "bad", FacultyID: facultyID}, adminActor)
	require.Error(t, err)
	assert.NotEmpty(t, appErrors.FromError(err).Details)
}

func TestSubjectServiceUpdateAllowsSameCode(t *testing.T) {
	db := newFakeDB()
	svc := newTestSubjectService(db, nil)

	subject, err := svc.Update(context.Background(), mathsID, models.SubjectRequest{Code: "MA101", Name: "Engineering Maths", ClassID: classAID, FacultyID: faculty2ID}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Engineering Maths", subject.Name)
	assert.Equal(t, faculty2ID, db.subjects[mathsID].FacultyID)
}

func TestSubjectServiceRejectsBlankCodeAndName(t *testing.T) {
	db := newFakeDB()
	svc := newTestSubjectService(db, nil)

	_, err := svc.Create(context.Background(), models.SubjectRequest{Code: "  ", Name: "Algorithms", ClassID: classAID, FacultyID: facultyID}, adminActor)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, appErrors.FieldError{Field: "Code", Rule: "required"}, appErr.Details[0])

	_, err = svc.Update(context.Background(), mathsID, models.SubjectRequest{Code: "MA101", Name: "   ", ClassID: classAID, FacultyID: facultyID}, adminActor)
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, appErrors.FieldError{Field: "Name", Rule: "required"}, appErr.Details[0])
	assert.Equal(t, "Maths", db.subjects[mathsID].Name)
}

func TestSubjectServiceDelete(t *testing.T) {
	db := newFakeDB()
	cacheRepo := &stubCacheRepo{}
	svc := newTestSubjectService(db, cacheRepo)

	require.NoError(t, svc.Delete(context.Background(), physicsID, adminActor))
	assert.NotContains(t, db.subjects, physicsID)
	assert.Equal(t, []string{"dash:*", "report:*"}, cacheRepo.deleted)

	err := svc.Delete(context.Background(), physicsID, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSubjectServiceGet(t *testing.T) {
	svc := newTestSubjectService(newFakeDB(), nil)

	detail, err := svc.Get(context.Background(), mathsID)
	require.NoError(t, err)
	assert.Equal(t, "CSE-A", detail.ClassName)
	assert.Equal(t, "Ravi Kumar", detail.FacultyName)
}
