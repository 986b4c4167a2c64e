package models

import "time"

// MarkRecord is a score for one student in one assessment of a subject.
// (student_id, subject_id, assessment) is unique.
type MarkRecord struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	SubjectID     string    `db:"subject_id" json:"subject_id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	Assessment    string    `db:"assessment" json:"assessment"`
	MarksObtained float64   `db:"marks_obtained" json:"marks_obtained"`
	MaxMarks      float64   `db:"max_marks" json:"max_marks"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// MarkEntry joins a record with student and subject names.
type MarkEntry struct {
	StudentID     string  `db:"student_id" json:"student_id"`
	StudentName   string  `db:"student_name" json:"student_name"`
	RollNumber    *string `db:"roll_number" json:"roll_number,omitempty"`
	SubjectID     string  `db:"subject_id" json:"subject_id"`
	SubjectName   string  `db:"subject_name" json:"subject_name"`
	Assessment    string  `db:"assessment" json:"assessment"`
	MarksObtained float64 `db:"marks_obtained" json:"marks_obtained"`
	MaxMarks      float64 `db:"max_marks" json:"max_marks"`
}

// MarkFilter narrows the records a query or report considers.
type MarkFilter struct {
	ClassID    string
	SubjectID  string
	StudentID  string
	Assessment string
}

// MarkInput is one student's score in a batch.
type MarkInput struct {
	StudentID     string   `json:"student_id" validate:"required,uuid"`
	MarksObtained *float64 `json:"marks_obtained" validate:"required,gte=0"`
}

// SaveMarksRequest records an assessment for a class subject.
type SaveMarksRequest struct {
	ClassID    string      `json:"class_id" validate:"required,uuid"`
	SubjectID  string      `json:"subject_id" validate:"required,uuid"`
	Assessment string      `json:"assessment" validate:"required,max=64"`
	MaxMarks   float64     `json:"max_marks" validate:"required,gt=0"`
	Entries    []MarkInput `json:"entries" validate:"required,min=1,dive"`
}

// MarksQuery selects a class subject and optionally one assessment.
type MarksQuery struct {
	ClassID    string `form:"class_id" validate:"required,uuid"`
	SubjectID  string `form:"subject_id" validate:"required,uuid"`
	Assessment string `form:"assessment" validate:"omitempty,max=64"`
}

// MarkSheetRow is a rendered mark with percentage and grade letter.
type MarkSheetRow struct {
	StudentID     string  `json:"student_id"`
	StudentName   string  `json:"student_name"`
	RollNumber    *string `json:"roll_number,omitempty"`
	Assessment    string  `json:"assessment"`
	MarksObtained float64 `json:"marks_obtained"`
	MaxMarks      float64 `json:"max_marks"`
	Percentage    float64 `json:"percentage"`
	Grade         string  `json:"grade"`
}

// DistributionBucket counts marks falling into a percentage band.
type DistributionBucket struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

// MarksDistribution is the histogram of a class subject's marks.
type MarksDistribution struct {
	ClassID    string               `json:"class_id"`
	SubjectID  string               `json:"subject_id"`
	Assessment string               `json:"assessment,omitempty"`
	Buckets    []DistributionBucket `json:"buckets"`
	Total      int                  `json:"total"`
}

// PerformanceEntry is one ranked mark.
type PerformanceEntry struct {
	StudentID     string  `json:"student_id"`
	StudentName   string  `json:"student_name"`
	Assessment    string  `json:"assessment"`
	MarksObtained float64 `json:"marks_obtained"`
	MaxMarks      float64 `json:"max_marks"`
	Percentage    float64 `json:"percentage"`
}

// PerformanceFlags splits marks into watch, top and average lists.
type PerformanceFlags struct {
	ClassID           string             `json:"class_id"`
	SubjectID         string             `json:"subject_id"`
	Assessment        string             `json:"assessment,omitempty"`
	StudentsToWatch   []PerformanceEntry `json:"students_to_watch"`
	TopPerformers     []PerformanceEntry `json:"top_performers"`
	AveragePerformers []PerformanceEntry `json:"average_performers"`
}

// SubjectPerformance aggregates every assessment of one subject.
type SubjectPerformance struct {
	SubjectID     string  `json:"subject_id"`
	SubjectName   string  `json:"subject_name"`
	MarksObtained float64 `json:"marks_obtained"`
	MaxMarks      float64 `json:"max_marks"`
	Percentage    float64 `json:"percentage"`
	Grade         string  `json:"grade"`
}

// StudentPerformance is a student's overall standing across subjects.
type StudentPerformance struct {
	StudentID             string               `json:"student_id"`
	Subjects              []SubjectPerformance `json:"subjects"`
	OverallAverage        float64              `json:"overall_average"`
	BestSubject           *string              `json:"best_subject"`
	SubjectForImprovement *string              `json:"subject_for_improvement"`
}
