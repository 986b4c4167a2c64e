package models

import "time"

// StudentProfile is the bio a student maintains about themselves.
type StudentProfile struct {
	StudentID     string     `db:"student_id" json:"student_id"`
	Phone         *string    `db:"phone" json:"phone,omitempty"`
	Address       *string    `db:"address" json:"address,omitempty"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	GuardianName  *string    `db:"guardian_name" json:"guardian_name,omitempty"`
	GuardianPhone *string    `db:"guardian_phone" json:"guardian_phone,omitempty"`
	BloodGroup    *string    `db:"blood_group" json:"blood_group,omitempty"`
	Bio           *string    `db:"bio" json:"bio,omitempty"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentBioRequest updates a student's bio. Every field is optional.
type StudentBioRequest struct {
	Phone         *string `json:"phone" validate:"omitempty,max=32"`
	Address       *string `json:"address" validate:"omitempty,max=255"`
	DateOfBirth   *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	GuardianName  *string `json:"guardian_name" validate:"omitempty,max=120"`
	GuardianPhone *string `json:"guardian_phone" validate:"omitempty,max=32"`
	BloodGroup    *string `json:"blood_group" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Bio           *string `json:"bio" validate:"omitempty,max=2000"`
}
