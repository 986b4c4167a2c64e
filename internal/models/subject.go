package models

import "time"

// Subject represents a subject taught to one class by one faculty member.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	ClassID   string    `db:"class_id" json:"class_id"`
	FacultyID string    `db:"faculty_id" json:"faculty_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectDetail carries the class and faculty names for display.
type SubjectDetail struct {
	Subject
	ClassName   string `db:"class_name" json:"class_name"`
	FacultyName string `db:"faculty_name" json:"faculty_name"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	ClassID   string
	FacultyID string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SubjectRequest is the create/update payload for a subject.
type SubjectRequest struct {
	Code      string `json:"code" validate:"required,max=32"`
	Name      string `json:"name" validate:"required,max=120"`
	ClassID   string `json:"class_id" validate:"required,uuid"`
	FacultyID string `json:"faculty_id" validate:"required,uuid"`
}
