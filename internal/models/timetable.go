package models

// Weekday names accepted in timetables.
const (
	Monday    = "MONDAY"
	Tuesday   = "TUESDAY"
	Wednesday = "WEDNESDAY"
	Thursday  = "THURSDAY"
	Friday    = "FRIDAY"
	Saturday  = "SATURDAY"
)

// PeriodsPerDay is the number of teaching periods in the daily template.
const PeriodsPerDay = 8

// FreePeriod labels a slot without a scheduled subject.
const FreePeriod = "Free Period"

// TimetableSlot is a stored schedule cell. A nil SubjectID is an empty period.
type TimetableSlot struct {
	ClassID   string  `db:"class_id" json:"class_id"`
	Day       string  `db:"day" json:"day"`
	Period    int     `db:"period" json:"period"`
	SubjectID *string `db:"subject_id" json:"subject_id"`
}

// TimetableSlotDetail joins a slot with subject, faculty and class names.
type TimetableSlotDetail struct {
	TimetableSlot
	SubjectName *string `db:"subject_name" json:"subject_name,omitempty"`
	FacultyID   *string `db:"faculty_id" json:"faculty_id,omitempty"`
	FacultyName *string `db:"faculty_name" json:"faculty_name,omitempty"`
	ClassName   string  `db:"class_name" json:"class_name"`
}

// ClassTimetable is a class schedule keyed by weekday, one entry per teaching period.
type ClassTimetable struct {
	ClassID string               `json:"class_id"`
	Days    map[string][]*string `json:"days"`
}

// SaveTimetableRequest replaces a class schedule.
type SaveTimetableRequest struct {
	Days map[string][]*string `json:"days" validate:"required,dive,keys,weekday,endkeys,max=8"`
}

// TemplateSlot is one of the ten fixed daily slots.
type TemplateSlot struct {
	Label  string `json:"label"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Break  bool   `json:"is_break"`
	Period int    `json:"period,omitempty"`
}

// TimetableCell is a template slot resolved for a viewer.
type TimetableCell struct {
	TemplateSlot
	SubjectID   *string `json:"subject_id,omitempty"`
	SubjectName string  `json:"subject_name,omitempty"`
	FacultyName string  `json:"faculty_name,omitempty"`
	ClassName   string  `json:"class_name,omitempty"`
}

// TimetableDay is one rendered weekday.
type TimetableDay struct {
	Day   string          `json:"day"`
	Slots []TimetableCell `json:"slots"`
}

// TimetableView is a rendered weekly timetable.
type TimetableView struct {
	OwnerID string         `json:"owner_id"`
	Days    []TimetableDay `json:"days"`
}
