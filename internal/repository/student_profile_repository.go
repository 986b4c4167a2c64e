package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// StudentProfileRepository stores student bios.
type StudentProfileRepository struct {
	db *sqlx.DB
}

// NewStudentProfileRepository constructs the repository.
func NewStudentProfileRepository(db *sqlx.DB) *StudentProfileRepository {
	return &StudentProfileRepository{db: db}
}

// FindByStudentID returns the bio of a student. sql.ErrNoRows is returned untouched.
func (r *StudentProfileRepository) FindByStudentID(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	const query = `SELECT student_id, phone, address, date_of_birth, guardian_name, guardian_phone, blood_group, bio, updated_at FROM student_profiles WHERE student_id = $1`
	var profile models.StudentProfile
	if err := r.db.GetContext(ctx, &profile, query, studentID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert creates or replaces the bio of a student.
func (r *StudentProfileRepository) Upsert(ctx context.Context, profile *models.StudentProfile) error {
	profile.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO student_profiles (student_id, phone, address, date_of_birth, guardian_name, guardian_phone, blood_group, bio, updated_at)
VALUES (:student_id, :phone, :address, :date_of_birth, :guardian_name, :guardian_phone, :blood_group, :bio, :updated_at)
ON CONFLICT (student_id) DO UPDATE SET phone = EXCLUDED.phone, address = EXCLUDED.address, date_of_birth = EXCLUDED.date_of_birth,
    guardian_name = EXCLUDED.guardian_name, guardian_phone = EXCLUDED.guardian_phone, blood_group = EXCLUDED.blood_group,
    bio = EXCLUDED.bio, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert student profile: %w", err)
	}
	return nil
}
