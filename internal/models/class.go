package models

import "time"

// Class represents a department class or section.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	InChargeID   *string   `db:"in_charge_id" json:"in_charge_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with the in-charge faculty name and roster size.
type ClassDetail struct {
	Class
	InChargeName *string `db:"in_charge_name" json:"in_charge_name,omitempty"`
	StudentCount int     `db:"student_count" json:"student_count"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	AcademicYear string
	InChargeID   string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// ClassRequest is the create/update payload for a class.
type ClassRequest struct {
	Name         string  `json:"name" validate:"required,max=64"`
	AcademicYear string  `json:"academic_year" validate:"required,max=16"`
	InChargeID   *string `json:"in_charge_id" validate:"omitempty,uuid"`
}

// ClassStudent is a roster row for a class.
type ClassStudent struct {
	ID         string  `db:"id" json:"id"`
	FullName   string  `db:"full_name" json:"full_name"`
	Email      string  `db:"email" json:"email"`
	RollNumber *string `db:"roll_number" json:"roll_number,omitempty"`
}
