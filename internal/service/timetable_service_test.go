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

func newTestTimetableService(db *fakeDB, repo *fakeTimetable) *TimetableService {
	return NewTimetableService(repo, &fakeClasses{db: db}, &fakeSubjects{db: db}, &fakeUsers{db: db}, nil, nil, nil, zap.NewNop())
}

func TestDailyTemplateHasEightPeriodsAndTwoBreaks(t *testing.T) {
	require.Len(t, DailyTemplate, 10)
	var periods, breaks int
	for _, slot := range DailyTemplate {
		if slot.Break {
			breaks++
			continue
		}
		periods++
		assert.Equal(t, periods, slot.Period)
	}
	assert.Equal(t, models.PeriodsPerDay, periods)
	assert.Equal(t, 2, breaks)
	assert.Equal(t, "Short Break", DailyTemplate[2].Label)
	assert.Equal(t, "Lunch Break", DailyTemplate[5].Label)
}

func TestTimetableServiceSaveAndGet(t *testing.T) {
	db := newFakeDB()
	repo := newFakeTimetable(db)
	svc := newTestTimetableService(db, repo)

	timetable, err := svc.Save(context.Background(), classAID, models.SaveTimetableRequest{Days: map[string][]*string{
		models.Monday:  {strPtr(mathsID), nil, strPtr(physicsID)},
		models.Tuesday: {strPtr(""), strPtr(mathsID)},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.replaced)
	assert.Len(t, repo.slots[classAID], 5)

	monday := timetable.Days[models.Monday]
	require.Len(t, monday, models.PeriodsPerDay)
	assert.Equal(t, mathsID, *monday[0])
	assert.Nil(t, monday[1])
	assert.Equal(t, physicsID, *monday[2])
	assert.Nil(t, timetable.Days[models.Tuesday][0])
	assert.Equal(t, mathsID, *timetable.Days[models.Tuesday][1])
	assert.Len(t, timetable.Days, 6)
}

func TestTimetableServiceSaveRejectsForeignSubject(t *testing.T) {
	db := newFakeDB()
	repo := newFakeTimetable(db)
	svc := newTestTimetableService(db, repo)

	_, err := svc.Save(context.Background(), classAID, models.SaveTimetableRequest{Days: map[string][]*string{
		models.Monday: {strPtr(chemID)},
	}})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "Days[MONDAY][0]", appErr.Details[0].Field)
	assert.Zero(t, repo.replaced)
}

func TestTimetableServiceSaveValidatesShape(t *testing.T) {
	db := newFakeDB()
	svc := newTestTimetableService(db, newFakeTimetable(db))

	_, err := svc.Save(context.Background(), classAID, models.SaveTimetableRequest{Days: map[string][]*string{"SUNDAY": {}}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	nine := make([]*string, 9)
	_, err = svc.Save(context.Background(), classAID, models.SaveTimetableRequest{Days: map[string][]*string{models.Monday: nine}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Save(context.Background(), missingID, models.SaveTimetableRequest{Days: map[string][]*string{models.Monday: {}}})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTimetableServiceStudentView(t *testing.T) {
	db := newFakeDB()
	repo := newFakeTimetable(db)
	repo.slots[classAID] = []models.TimetableSlot{
		{ClassID: classAID, Day: models.Monday, Period: 1, SubjectID: strPtr(mathsID)},
		{ClassID: classAID, Day: models.Monday, Period: 3, SubjectID: strPtr(physicsID)},
		{ClassID: classAID, Day: models.Monday, Period: 4},
	}
	svc := newTestTimetableService(db, repo)

	view, err := svc.StudentTimetable(context.Background(), student1ID, studentActor)
	require.NoError(t, err)
	require.Len(t, view.Days, 6)
	monday := view.Days[0]
	assert.Equal(t, models.Monday, monday.Day)
	require.Len(t, monday.Slots, 10)

	assert.Equal(t, "Maths", monday.Slots[0].SubjectName)
	assert.Equal(t, "Ravi Kumar", monday.Slots[0].FacultyName)
	assert.Equal(t, models.FreePeriod, monday.Slots[1].SubjectName)
	assert.True(t, monday.Slots[2].Break)
	assert.Empty(t, monday.Slots[2].SubjectName)
	assert.Equal(t, "Physics", monday.Slots[3].SubjectName)
	assert.Equal(t, "10:55", monday.Slots[3].Start)
	assert.Equal(t, models.FreePeriod, monday.Slots[4].SubjectName)
	assert.Empty(t, monday.Slots[0].ClassName)
}

func TestTimetableServiceStudentAccess(t *testing.T) {
	db := newFakeDB()
	svc := newTestTimetableService(db, newFakeTimetable(db))

	_, err := svc.StudentTimetable(context.Background(), student2ID, studentActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.StudentTimetable(context.Background(), student2ID, facultyActor)
	assert.NoError(t, err)
}

func TestTimetableServiceFacultyViewFirstClassWins(t *testing.T) {
	db := newFakeDB()
	repo := newFakeTimetable(db)
	repo.slots[classBID] = []models.TimetableSlot{
		{ClassID: classBID, Day: models.Monday, Period: 1, SubjectID: strPtr(chemID)},
		{ClassID: classBID, Day: models.Friday, Period: 8, SubjectID: strPtr(chemID)},
	}
	repo.slots[classAID] = []models.TimetableSlot{
		{ClassID: classAID, Day: models.Monday, Period: 1, SubjectID: strPtr(mathsID)},
		{ClassID: classAID, Day: models.Monday, Period: 2, SubjectID: strPtr(physicsID)},
	}
	svc := newTestTimetableService(db, repo)

	view, err := svc.FacultyTimetable(context.Background(), facultyID, facultyActor)
	require.NoError(t, err)

	monday := view.Days[0]
	assert.Equal(t, "Maths", monday.Slots[0].SubjectName)
	assert.Equal(t, "CSE-A", monday.Slots[0].ClassName)
	assert.Equal(t, models.FreePeriod, monday.Slots[1].SubjectName, "physics is taught by someone else")

	friday := view.Days[4]
	assert.Equal(t, models.Friday, friday.Day)
	assert.Equal(t, "Chemistry", friday.Slots[9].SubjectName)
	assert.Equal(t, "CSE-B", friday.Slots[9].ClassName)
}

func TestTimetableServiceFacultyAccess(t *testing.T) {
	db := newFakeDB()
	svc := newTestTimetableService(db, newFakeTimetable(db))

	_, err := svc.FacultyTimetable(context.Background(), faculty2ID, facultyActor)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.FacultyTimetable(context.Background(), student1ID, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTimetableServiceToday(t *testing.T) {
	db := newFakeDB()
	svc := newTestTimetableService(db, newFakeTimetable(db))
	view, err := svc.StudentTimetable(context.Background(), student1ID, studentActor)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC) }
	today := svc.Today(view)
	require.NotNil(t, today)
	assert.Equal(t, models.Wednesday, today.Day)

	svc.now = func() time.Time { return time.Date(2024, 6, 9, 10, 0, 0, 0, time.UTC) }
	assert.Nil(t, svc.Today(view), "sunday has no classes")
}

func TestTimetableServiceTodayUsesUTCDate(t *testing.T) {
	db := newFakeDB()
	svc := newTestTimetableService(db, newFakeTimetable(db))
	view, err := svc.StudentTimetable(context.Background(), student1ID, studentActor)
	require.NoError(t, err)

	// 23:30 Tuesday in UTC-5 is already Wednesday in UTC.
	local := time.FixedZone("UTC-5", -5*60*60)
	svc.now = func() time.Time { return time.Date(2024, 6, 4, 23, 30, 0, 0, local) }
	today := svc.Today(view)
	require.NotNil(t, today)
	assert.Equal(t, models.Wednesday, today.Day)

	// 00:30 Monday in UTC+9 is still Sunday in UTC.
	ahead := time.FixedZone("UTC+9", 9*60*60)
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 0, 30, 0, 0, ahead) }
	assert.Nil(t, svc.Today(view))
}

func TestTimetableServiceConfiguredWeekDays(t *testing.T) {
	db := newFakeDB()
	svc := NewTimetableService(newFakeTimetable(db), &fakeClasses{db: db}, &fakeSubjects{db: db}, &fakeUsers{db: db}, nil,
		[]string{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday, "FUNDAY"}, nil, zap.NewNop())

	view, err := svc.StudentTimetable(context.Background(), student1ID, studentActor)
	require.NoError(t, err)
	assert.Len(t, view.Days, 5)

	_, err = svc.Save(context.Background(), classAID, models.SaveTimetableRequest{Days: map[string][]*string{models.Saturday: {strPtr(mathsID)}}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
