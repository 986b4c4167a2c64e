package models

import "time"

// AttendanceRecord is one presence flag for a student in a subject period.
// (student_id, subject_id, date, period) is unique.
type AttendanceRecord struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Date      time.Time `db:"date" json:"date"`
	Period    int       `db:"period" json:"period"`
	Present   bool      `db:"present" json:"present"`
	MarkedBy  *string   `db:"marked_by" json:"marked_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceEntry joins a record with the names needed by aggregations.
type AttendanceEntry struct {
	StudentID   string    `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	RollNumber  *string   `db:"roll_number" json:"roll_number,omitempty"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	SubjectName string    `db:"subject_name" json:"subject_name"`
	Date        time.Time `db:"date" json:"date"`
	Period      int       `db:"period" json:"period"`
	Present     bool      `db:"present" json:"present"`
}

// AttendanceMark is a single student entry of a batch.
type AttendanceMark struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Present   *bool  `json:"present" validate:"required"`
}

// SaveAttendanceRequest marks a whole class for one subject period.
type SaveAttendanceRequest struct {
	ClassID   string           `json:"class_id" validate:"required,uuid"`
	SubjectID string           `json:"subject_id" validate:"required,uuid"`
	Date      string           `json:"date" validate:"required,datetime=2006-01-02"`
	Period    int              `json:"period" validate:"required,attendance_period"`
	Entries   []AttendanceMark `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceQuery selects one class sheet.
type AttendanceQuery struct {
	ClassID   string `form:"class_id" validate:"required,uuid"`
	SubjectID string `form:"subject_id" validate:"required,uuid"`
	Date      string `form:"date" validate:"required,datetime=2006-01-02"`
	Period    int    `form:"period" validate:"required,attendance_period"`
}

// AttendanceSheetRow is a roster row with the mark for the requested period, if any.
type AttendanceSheetRow struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	RollNumber  *string `db:"roll_number" json:"roll_number,omitempty"`
	Present     *bool   `db:"present" json:"present"`
}

// AttendanceRatio holds present/total counts with the derived percentage.
type AttendanceRatio struct {
	Present    int     `json:"present"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// SubjectAttendance is the per-subject slice of a student's attendance.
type SubjectAttendance struct {
	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	AttendanceRatio
}

// StudentAttendanceSummary groups a student's attendance by subject.
type StudentAttendanceSummary struct {
	StudentID string              `json:"student_id"`
	Subjects  []SubjectAttendance `json:"subjects"`
	Overall   AttendanceRatio     `json:"overall"`
}

// StudentAttendanceRow is one student's ratio inside a class+subject report.
type StudentAttendanceRow struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	RollNumber  *string `json:"roll_number,omitempty"`
	AttendanceRatio
}

// ClassSubjectAttendance reports attendance of every student for a subject.
type ClassSubjectAttendance struct {
	ClassID   string                 `json:"class_id"`
	SubjectID string                 `json:"subject_id"`
	Students  []StudentAttendanceRow `json:"students"`
	Overall   AttendanceRatio        `json:"overall"`
}
