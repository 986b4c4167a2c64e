package dto

import (
	"time"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	Counts         DashboardCounts `json:"counts"`
	UpcomingEvents []models.Event  `json:"upcoming_events"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// DashboardCounts holds department-wide totals.
type DashboardCounts struct {
	Students int `json:"students"`
	Faculty  int `json:"faculty"`
	Classes  int `json:"classes"`
	Subjects int `json:"subjects"`
}

// FacultyDashboardResponse is the landing view of a faculty member.
type FacultyDashboardResponse struct {
	FacultyID       string                `json:"faculty_id"`
	InChargeClasses []models.Class        `json:"in_charge_classes"`
	Subjects        []models.Subject      `json:"subjects"`
	Today           *models.TimetableDay  `json:"today"`
	Watchlist       []SubjectWatchSummary `json:"watchlist"`
	GeneratedAt     time.Time             `json:"generated_at"`
}

// SubjectWatchSummary counts students below the pass band in a handled subject.
type SubjectWatchSummary struct {
	SubjectID       string `json:"subject_id"`
	SubjectName     string `json:"subject_name"`
	ClassID         string `json:"class_id"`
	StudentsToWatch int    `json:"students_to_watch"`
}

// StudentDashboardResponse is the landing view of a student.
type StudentDashboardResponse struct {
	StudentID      string                          `json:"student_id"`
	ClassID        *string                         `json:"class_id"`
	Attendance     models.StudentAttendanceSummary `json:"attendance"`
	Performance    models.StudentPerformance       `json:"performance"`
	Today          *models.TimetableDay            `json:"today"`
	UpcomingEvents []models.Event                  `json:"upcoming_events"`
	GeneratedAt    time.Time                       `json:"generated_at"`
}
