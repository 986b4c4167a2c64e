package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/database"
)

// AttendanceRepository persists the per-period attendance ledger.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const upsertAttendanceQuery = `INSERT INTO attendance (id, student_id, subject_id, class_id, date, period, present, marked_by, created_at, updated_at)
VALUES (:id, :student_id, :subject_id, :class_id, :date, :period, :present, :marked_by, :created_at, :updated_at)
ON CONFLICT (student_id, subject_id, date, period)
DO UPDATE SET present = EXCLUDED.present, class_id = EXCLUDED.class_id, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at`

// BulkUpsert writes a batch of marks atomically. A re-mark of the same natural key overwrites
// the presence flag instead of adding a row.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		for i := range records {
			if records[i].ID == "" {
				records[i].ID = uuid.NewString()
			}
			if records[i].CreatedAt.IsZero() {
				records[i].CreatedAt = now
			}
			records[i].UpdatedAt = now
			if _, err := tx.NamedExecContext(ctx, upsertAttendanceQuery, records[i]); err != nil {
				return fmt.Errorf("upsert attendance: %w", err)
			}
		}
		return nil
	})
}

// ClassSheet returns the class roster with the mark recorded for one subject period.
// Students without a mark have a nil Present.
func (r *AttendanceRepository) ClassSheet(ctx context.Context, classID, subjectID string, date time.Time, period int) ([]models.AttendanceSheetRow, error) {
	const query = `SELECT u.id AS student_id, u.full_name AS student_name, u.roll_number, a.present
FROM users u
LEFT JOIN attendance a ON a.student_id = u.id AND a.subject_id = $2 AND a.date = $3 AND a.period = $4
WHERE u.class_id = $1 AND u.role = 'STUDENT'
ORDER BY u.roll_number ASC NULLS LAST, u.full_name ASC`
	var rows []models.AttendanceSheetRow
	if err := r.db.SelectContext(ctx, &rows, query, classID, subjectID, date, period); err != nil {
		return nil, fmt.Errorf("attendance sheet: %w", err)
	}
	return rows, nil
}

// ListByStudent returns every attendance mark of a student with subject names.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceEntry, error) {
	const query = `SELECT a.student_id, u.full_name AS student_name, u.roll_number, a.subject_id, s.name AS subject_name, a.date, a.period, a.present
FROM attendance a
JOIN users u ON u.id = a.student_id
JOIN subjects s ON s.id = a.subject_id
WHERE a.student_id = $1
ORDER BY s.name ASC, a.date ASC, a.period ASC`
	var entries []models.AttendanceEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return entries, nil
}

// ListByClassSubject returns every mark recorded for a subject within a class.
func (r *AttendanceRepository) ListByClassSubject(ctx context.Context, classID, subjectID string) ([]models.AttendanceEntry, error) {
	const query = `SELECT a.student_id, u.full_name AS student_name, u.roll_number, a.subject_id, s.name AS subject_name, a.date, a.period, a.present
FROM attendance a
JOIN users u ON u.id = a.student_id
JOIN subjects s ON s.id = a.subject_id
WHERE a.class_id = $1 AND a.subject_id = $2
ORDER BY a.date ASC, a.period ASC`
	var entries []models.AttendanceEntry
	if err := r.db.SelectContext(ctx, &entries, query, classID, subjectID); err != nil {
		return nil, fmt.Errorf("list class subject attendance: %w", err)
	}
	return entries, nil
}
