package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/database"
)

// TimetableRepository stores weekly class schedules.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const timetableDetailSelect = `SELECT t.class_id, t.day, t.period, t.subject_id,
       s.name AS subject_name, s.faculty_id, u.full_name AS faculty_name, c.name AS class_name
FROM timetable_slots t
JOIN classes c ON c.id = t.class_id
LEFT JOIN subjects s ON s.id = t.subject_id
LEFT JOIN users u ON u.id = s.faculty_id`

// ListByClass returns the stored slots of a class.
func (r *TimetableRepository) ListByClass(ctx context.Context, classID string) ([]models.TimetableSlotDetail, error) {
	query := timetableDetailSelect + ` WHERE t.class_id = $1 ORDER BY t.day ASC, t.period ASC`
	var slots []models.TimetableSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, classID); err != nil {
		return nil, fmt.Errorf("list class timetable: %w", err)
	}
	return slots, nil
}

// ListByFaculty scans every class schedule and returns the slots taught by a faculty member.
// Rows are ordered by class name so the first class wins on a clash.
func (r *TimetableRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.TimetableSlotDetail, error) {
	query := timetableDetailSelect + ` WHERE s.faculty_id = $1 ORDER BY c.name ASC, t.day ASC, t.period ASC`
	var slots []models.TimetableSlotDetail
	if err := r.db.SelectContext(ctx, &slots, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty timetable: %w", err)
	}
	return slots, nil
}

// Replace swaps the whole schedule of a class within a transaction.
func (r *TimetableRepository) Replace(ctx context.Context, classID string, slots []models.TimetableSlot) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM timetable_slots WHERE class_id = $1`, classID); err != nil {
			return fmt.Errorf("clear timetable: %w", err)
		}
		const insert = `INSERT INTO timetable_slots (class_id, day, period, subject_id) VALUES (:class_id, :day, :period, :subject_id)`
		for i := range slots {
			slot := slots[i]
			slot.ClassID = classID
			if _, err := tx.NamedExecContext(ctx, insert, &slot); err != nil {
				return fmt.Errorf("insert timetable slot: %w", err)
			}
		}
		return nil
	})
}
