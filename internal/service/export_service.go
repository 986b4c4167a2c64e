package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
	"github.com/noah-isme/dept-portal-api/pkg/export"
)

type documentRenderer interface {
	Render(format export.Format, data export.Dataset) ([]byte, error)
}

type markSheetSource interface {
	Sheet(ctx context.Context, query models.MarksQuery) ([]models.MarkSheetRow, error)
}

type attendanceReportSource interface {
	ClassSubjectReport(ctx context.Context, classID, subjectID string) (*models.ClassSubjectAttendance, bool, error)
}

// ExportResult is a rendered document ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders marks and attendance reports as CSV, PDF or XLSX.
type ExportService struct {
	renderer   documentRenderer
	marks      markSheetSource
	attendance attendanceReportSource
	subjects   subjectFinder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(renderer documentRenderer, marks markSheetSource, attendance attendanceReportSource, subjects subjectFinder, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{renderer: renderer, marks: marks, attendance: attendance, subjects: subjects, validator: ensureValidator(validate), logger: logger}
}

var markHeaders = []string{"Roll No", "Student", "Assessment", "Marks Obtained", "Max Marks", "Percentage", "Grade"}

// Marks renders the marks sheet of a class subject.
func (s *ExportService) Marks(ctx context.Context, query models.ExportMarksQuery) (*ExportResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid export query")
	}
	rows, err := s.marks.Sheet(ctx, models.MarksQuery{ClassID: query.ClassID, SubjectID: query.SubjectID, Assessment: query.Assessment})
	if err != nil {
		return nil, err
	}

	title := s.subjectTitle(ctx, query.SubjectID, "Marks")
	if a := strings.TrimSpace(query.Assessment); a != "" {
		title += " - " + a
	}
	data := export.Dataset{Title: title, Headers: markHeaders, Rows: make([]map[string]string, 0, len(rows))}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Roll No":        deref(row.RollNumber),
			"Student":        row.StudentName,
			"Assessment":     row.Assessment,
			"Marks Obtained": formatNumber(row.MarksObtained),
			"Max Marks":      formatNumber(row.MaxMarks),
			"Percentage":     formatNumber(row.Percentage),
			"Grade":          row.Grade,
		})
	}
	return s.render(query.Format, "marks", data)
}

var attendanceHeaders = []string{"Roll No", "Student", "Present", "Total", "Percentage"}

// Attendance renders the class subject attendance report.
func (s *ExportService) Attendance(ctx context.Context, query models.ExportAttendanceQuery) (*ExportResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid export query")
	}
	report, _, err := s.attendance.ClassSubjectReport(ctx, query.ClassID, query.SubjectID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:   s.subjectTitle(ctx, query.SubjectID, "Attendance"),
		Headers: attendanceHeaders,
		Rows:    make([]map[string]string, 0, len(report.Students)+1),
	}
	for _, row := range report.Students {
		data.Rows = append(data.Rows, map[string]string{
			"Roll No":    deref(row.RollNumber),
			"Student":    row.StudentName,
			"Present":    strconv.Itoa(row.Present),
			"Total":      strconv.Itoa(row.Total),
			"Percentage": formatNumber(row.Percentage),
		})
	}
	data.Rows = append(data.Rows, map[string]string{
		"Student":    "Overall",
		"Present":    strconv.Itoa(report.Overall.Present),
		"Total":      strconv.Itoa(report.Overall.Total),
		"Percentage": formatNumber(report.Overall.Percentage),
	})
	return s.render(query.Format, "attendance", data)
}

func (s *ExportService) render(rawFormat, name string, data export.Dataset) (*ExportResult, error) {
	format := export.Format(strings.ToLower(rawFormat))
	if format == "" {
		format = export.FormatCSV
	}
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	content, err := s.renderer.Render(format, data)
	if err != nil {
		s.logger.Error("render export failed", zap.String("export", name), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("%s.%s", name, format),
		ContentType: format.ContentType(),
		Data:        content,
	}, nil
}

// subjectTitle prefixes the document title with the subject when it can be resolved.
func (s *ExportService) subjectTitle(ctx context.Context, subjectID, kind string) string {
	if s.subjects == nil {
		return kind
	}
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		s.logger.Debug("export subject lookup failed", zap.String("subject_id", subjectID), zap.Error(err))
		return kind
	}
	return fmt.Sprintf("%s (%s) %s", subject.Name, subject.Code, kind)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
