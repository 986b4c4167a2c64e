package service

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
	"github.com/noah-isme/dept-portal-api/pkg/export"
)

type failingRenderer struct{}

func (failingRenderer) Render(export.Format, export.Dataset) ([]byte, error) {
	return nil, errors.New("disk full")
}

func newTestExportService(db *fakeDB, marks *fakeMarks, attendance *fakeAttendance, renderer documentRenderer) *ExportService {
	cacheSvc := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	classes := &fakeClasses{db: db}
	subjects := &fakeSubjects{db: db}
	marksSvc := NewMarksService(marks, classes, subjects, cacheSvc, nil, nil, zap.NewNop())
	attendanceSvc := NewAttendanceService(attendance, classes, subjects, &fakeUsers{db: db}, cacheSvc, nil, time.Minute, nil, zap.NewNop())
	return NewExportService(renderer, marksSvc, attendanceSvc, subjects, nil, zap.NewNop())
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExportServiceMarksDefaultsToCSV(t *testing.T) {
	db := newFakeDB()
	marks := newFakeMarks(db)
	marks.records[markKey{student1ID, mathsID, "UT1"}] = models.MarkRecord{StudentID: student1ID, SubjectID: mathsID, ClassID: classAID, Assessment: "UT1", MarksObtained: 40, MaxMarks: 50}
	marks.records[markKey{student2ID, mathsID, "UT1"}] = models.MarkRecord{StudentID: student2ID, SubjectID: mathsID, ClassID: classAID, Assessment: "UT1", MarksObtained: 12.5, MaxMarks: 50}
	svc := newTestExportService(db, marks, newFakeAttendance(db), export.NewRegistry("Dept"))

	result, err := svc.Marks(context.Background(), models.ExportMarksQuery{ClassID: classAID, SubjectID: mathsID})
	require.NoError(t, err)
	assert.Equal(t, "marks.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	records := readCSV(t, result.Data)
	require.Len(t, records, 3)
	assert.Equal(t, markHeaders, records[0])
	assert.Equal(t, []string{"01", "Asha", "UT1", "40", "50", "80", Grade(40, 50)}, records[1])
	assert.Equal(t, []string{"02", "Bala", "UT1", "12.5", "50", "25", Grade(12.5, 50)}, records[2])
}

func TestExportServiceAttendanceAppendsOverall(t *testing.T) {
	db := newFakeDB()
	attendance := newFakeAttendance(db)
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, attendance.BulkUpsert(context.Background(), []models.AttendanceRecord{
		{StudentID: student1ID, SubjectID: mathsID, ClassID: classAID, Date: day, Period: 1, Present: true},
		{StudentID: student2ID, SubjectID: mathsID, ClassID: classAID, Date: day, Period: 1, Present: false},
	}))
	svc := newTestExportService(db, newFakeMarks(db), attendance, export.NewRegistry("Dept"))

	result, err := svc.Attendance(context.Background(), models.ExportAttendanceQuery{ClassID: classAID, SubjectID: mathsID, Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "attendance.csv", result.Filename)

	records := readCSV(t, result.Data)
	require.Len(t, records, 4)
	assert.Equal(t, attendanceHeaders, records[0])
	assert.Equal(t, []string{"01", "Asha", "1", "1", "100"}, records[1])
	assert.Equal(t, []string{"02", "Bala", "0", "1", "0"}, records[2])
	assert.Equal(t, []string{"", "Overall", "1", "2", "50"}, records[3])
}

func TestExportServiceBinaryFormats(t *testing.T) {
	db := newFakeDB()
	svc := newTestExportService(db, newFakeMarks(db), newFakeAttendance(db), export.NewRegistry("Dept"))

	pdf, err := svc.Marks(context.Background(), models.ExportMarksQuery{ClassID: classAID, SubjectID: mathsID, Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "marks.pdf", pdf.Filename)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, strings.HasPrefix(string(pdf.Data), "%PDF"))

	xlsx, err := svc.Attendance(context.Background(), models.ExportAttendanceQuery{ClassID: classAID, SubjectID: mathsID, Format: "xlsx"})
	require.NoError(t, err)
	assert.Equal(t, "attendance.xlsx", xlsx.Filename)
	assert.NotEmpty(t, xlsx.Data)
}

func TestExportServiceRejectsBadQueries(t *testing.T) {
	db := newFakeDB()
	svc := newTestExportService(db, newFakeMarks(db), newFakeAttendance(db), export.NewRegistry("Dept"))
	ctx := context.Background()

	_, err := svc.Marks(ctx, models.ExportMarksQuery{ClassID: classAID, SubjectID: mathsID, Format: "docx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Marks(ctx, models.ExportMarksQuery{ClassID: classAID, SubjectID: chemID})
	assert.ErrorIs(t, err, appErrors.ErrValidation, "subject of another class")

	_, err = svc.Attendance(ctx, models.ExportAttendanceQuery{ClassID: missingID, SubjectID: mathsID})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportServiceRenderFailure(t *testing.T) {
	db := newFakeDB()
	svc := newTestExportService(db, newFakeMarks(db), newFakeAttendance(db), failingRenderer{})

	_, err := svc.Marks(context.Background(), models.ExportMarksQuery{ClassID: classAID, SubjectID: mathsID})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
