package models

// ExportMarksQuery selects a marks sheet to download.
type ExportMarksQuery struct {
	ClassID    string `form:"class_id" validate:"required,uuid"`
	SubjectID  string `form:"subject_id" validate:"required,uuid"`
	Assessment string `form:"assessment" validate:"omitempty,max=64"`
	Format     string `form:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}

// ExportAttendanceQuery selects a class subject attendance report to download.
type ExportAttendanceQuery struct {
	ClassID   string `form:"class_id" validate:"required,uuid"`
	SubjectID string `form:"subject_id" validate:"required,uuid"`
	Format    string `form:"format" validate:"omitempty,oneof=csv pdf xlsx"`
}
