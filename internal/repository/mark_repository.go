package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/database"
)

// MarkRepository persists the assessment marks ledger.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository constructs the repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

const upsertMarkQuery = `INSERT INTO marks (id, student_id, subject_id, class_id, assessment, marks_obtained, max_marks, created_at, updated_at)
VALUES (:id, :student_id, :subject_id, :class_id, :assessment, :marks_obtained, :max_marks, :created_at, :updated_at)
ON CONFLICT (student_id, subject_id, assessment)
DO UPDATE SET marks_obtained = EXCLUDED.marks_obtained, max_marks = EXCLUDED.max_marks, class_id = EXCLUDED.class_id, updated_at = EXCLUDED.updated_at`

// BulkUpsert writes a batch of marks in one transaction.
func (r *MarkRepository) BulkUpsert(ctx context.Context, records []models.MarkRecord) error {
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
			if _, err := tx.NamedExecContext(ctx, upsertMarkQuery, records[i]); err != nil {
				return fmt.Errorf("upsert mark: %w", err)
			}
		}
		return nil
	})
}

// List returns marks matching the filter with student and subject names.
func (r *MarkRepository) List(ctx context.Context, filter models.MarkFilter) ([]models.MarkEntry, error) {
	query := `SELECT m.student_id, u.full_name AS student_name, u.roll_number, m.subject_id, s.name AS subject_name, m.assessment, m.marks_obtained, m.max_marks
FROM marks m
JOIN users u ON u.id = m.student_id
JOIN subjects s ON s.id = m.subject_id`
	var conditions []string
	var args []interface{}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("m.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("m.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("m.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Assessment != "" {
		conditions = append(conditions, fmt.Sprintf("m.assessment = $%d", len(args)+1))
		args = append(args, filter.Assessment)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY s.name ASC, m.assessment ASC, u.roll_number ASC NULLS LAST, u.full_name ASC"

	var entries []models.MarkEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return entries, nil
}

// ListAssessments returns the distinct assessment names recorded for a class subject.
func (r *MarkRepository) ListAssessments(ctx context.Context, classID, subjectID string) ([]string, error) {
	const query = `SELECT DISTINCT assessment FROM marks WHERE class_id = $1 AND subject_id = $2 ORDER BY assessment ASC`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, classID, subjectID); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return names, nil
}
