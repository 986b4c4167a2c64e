package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

// DailyTemplate is the fixed sequence of slots every school day follows.
var DailyTemplate = []models.TemplateSlot{
	{Label: "Period 1", Start: "09:00", End: "09:50", Period: 1},
	{Label: "Period 2", Start: "09:50", End: "10:40", Period: 2},
	{Label: "Short Break", Start: "10:40", End: "10:55", Break: true},
	{Label: "Period 3", Start: "10:55", End: "11:45", Period: 3},
	{Label: "Period 4", Start: "11:45", End: "12:35", Period: 4},
	{Label: "Lunch Break", Start: "12:35", End: "13:20", Break: true},
	{Label: "Period 5", Start: "13:20", End: "14:10", Period: 5},
	{Label: "Period 6", Start: "14:10", End: "15:00", Period: 6},
	{Label: "Period 7", Start: "15:00", End: "15:50", Period: 7},
	{Label: "Period 8", Start: "15:50", End: "16:40", Period: 8},
}

var defaultWeekDays = []string{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday, models.Saturday}

type timetableRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.TimetableSlotDetail, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]models.TimetableSlotDetail, error)
	Replace(ctx context.Context, classID string, slots []models.TimetableSlot) error
}

type classSubjectLister interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
}

// TimetableService stores class schedules and renders them for students and faculty.
type TimetableService struct {
	repo      timetableRepository
	classes   classFinder
	subjects  classSubjectLister
	users     userFinder
	cache     *CacheService
	weekDays  []string
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTimetableService builds the timetable service. Empty weekDays falls back to Monday through Saturday.
func NewTimetableService(repo timetableRepository, classes classFinder, subjects classSubjectLister, users userFinder, cache *CacheService, weekDays []string, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	days := make([]string, 0, len(weekDays))
	for _, day := range weekDays {
		if weekdays[day] {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		days = defaultWeekDays
	}
	return &TimetableService{
		repo:      repo,
		classes:   classes,
		subjects:  subjects,
		users:     users,
		cache:     cache,
		weekDays:  days,
		validator: ensureValidator(validate),
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns the stored schedule of a class, one entry per teaching period.
func (s *TimetableService) Get(ctx context.Context, classID string) (*models.ClassTimetable, error) {
	if _, err := loadClass(ctx, s.classes, s.logger, classID); err != nil {
		return nil, err
	}
	slots, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("load class timetable failed", zap.String("class_id", classID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load timetable")
	}

	timetable := &models.ClassTimetable{ClassID: classID, Days: make(map[string][]*string, len(s.weekDays))}
	for _, day := range s.weekDays {
		timetable.Days[day] = make([]*string, models.PeriodsPerDay)
	}
	for _, slot := range slots {
		periods, ok := timetable.Days[slot.Day]
		if !ok || slot.Period < 1 || slot.Period > models.PeriodsPerDay {
			continue
		}
		periods[slot.Period-1] = slot.SubjectID
	}
	return timetable, nil
}

// Save replaces the schedule of a class. Every referenced subject must belong to the class.
func (s *TimetableService) Save(ctx context.Context, classID string, req models.SaveTimetableRequest) (*models.ClassTimetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid timetable payload")
	}
	if _, err := loadClass(ctx, s.classes, s.logger, classID); err != nil {
		return nil, err
	}

	subjects, err := s.subjects.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("list class subjects failed", zap.String("class_id", classID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load class subjects")
	}
	owned := make(map[string]bool, len(subjects))
	for _, subject := range subjects {
		owned[subject.ID] = true
	}

	var details []appErrors.FieldError
	slots := make([]models.TimetableSlot, 0, len(req.Days)*models.PeriodsPerDay)
	for _, day := range s.weekDays {
		periods, ok := req.Days[day]
		if !ok {
			continue
		}
		for i, subjectID := range periods {
			if subjectID != nil && strings.TrimSpace(*subjectID) == "" {
				subjectID = nil
			}
			if subjectID != nil && !owned[*subjectID] {
				details = append(details, appErrors.FieldError{Field: periodField(day, i), Rule: "class_subject"})
				continue
			}
			slots = append(slots, models.TimetableSlot{ClassID: classID, Day: day, Period: i + 1, SubjectID: subjectID})
		}
	}
	for day := range req.Days {
		if !s.isWeekDay(day) {
			details = append(details, appErrors.FieldError{Field: "Days[" + day + "]", Rule: "week_day"})
		}
	}
	if len(details) > 0 {
		appErr := appErrors.Clone(appErrors.ErrValidation, "invalid timetable payload")
		appErr.Details = details
		return nil, appErr
	}

	if err := s.repo.Replace(ctx, classID, slots); err != nil {
		s.logger.Error("replace timetable failed", zap.String("class_id", classID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to save timetable")
	}
	_ = s.cache.Invalidate(ctx, "dash:*")
	return s.Get(ctx, classID)
}

// StudentTimetable renders the class schedule of a student onto the daily template.
func (s *TimetableService) StudentTimetable(ctx context.Context, studentID string, actor Actor) (*models.TimetableView, error) {
	if err := requireStudentAccess(actor, studentID); err != nil {
		return nil, err
	}
	student, err := loadStudent(ctx, s.users, s.logger, studentID)
	if err != nil {
		return nil, err
	}
	return s.studentView(ctx, student)
}

func (s *TimetableService) studentView(ctx context.Context, student *models.User) (*models.TimetableView, error) {
	cells := make(map[string]map[int]models.TimetableSlotDetail)
	if student.ClassID != nil && *student.ClassID != "" {
		slots, err := s.repo.ListByClass(ctx, *student.ClassID)
		if err != nil {
			s.logger.Error("load class timetable failed", zap.String("class_id", *student.ClassID), zap.Error(err))
			return nil, appErrors.Internal(err, "failed to load timetable")
		}
		for _, slot := range slots {
			if slot.SubjectID == nil {
				continue
			}
			if cells[slot.Day] == nil {
				cells[slot.Day] = make(map[int]models.TimetableSlotDetail)
			}
			cells[slot.Day][slot.Period] = slot
		}
	}
	return s.render(student.ID, cells, false), nil
}

// FacultyTimetable collects every slot taught by a faculty member across all classes.
// When two classes claim the same period the class that sorts first by name is shown.
func (s *TimetableService) FacultyTimetable(ctx context.Context, facultyID string, actor Actor) (*models.TimetableView, error) {
	if err := requireSelfOrAdmin(actor, facultyID); err != nil {
		return nil, err
	}
	if err := ensureFacultyUser(ctx, s.users, s.logger, facultyID); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrValidation.Code {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty not found")
		}
		return nil, err
	}
	return s.facultyView(ctx, facultyID)
}

func (s *TimetableService) facultyView(ctx context.Context, facultyID string) (*models.TimetableView, error) {
	slots, err := s.repo.ListByFaculty(ctx, facultyID)
	if err != nil {
		s.logger.Error("load faculty timetable failed", zap.String("faculty_id", facultyID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load timetable")
	}
	cells := make(map[string]map[int]models.TimetableSlotDetail)
	for _, slot := range slots {
		if cells[slot.Day] == nil {
			cells[slot.Day] = make(map[int]models.TimetableSlotDetail)
		}
		if _, taken := cells[slot.Day][slot.Period]; taken {
			s.logger.Warn("faculty timetable clash",
				zap.String("faculty_id", facultyID),
				zap.String("day", slot.Day),
				zap.Int("period", slot.Period),
				zap.String("class", slot.ClassName))
			continue
		}
		cells[slot.Day][slot.Period] = slot
	}
	return s.render(facultyID, cells, true), nil
}

// Today returns the rendered row for the current weekday, nil on days without classes.
func (s *TimetableService) Today(view *models.TimetableView) *models.TimetableDay {
	if view == nil {
		return nil
	}
	today := strings.ToUpper(s.now().UTC().Weekday().String())
	for i := range view.Days {
		if view.Days[i].Day == today {
			return &view.Days[i]
		}
	}
	return nil
}

func (s *TimetableService) render(ownerID string, cells map[string]map[int]models.TimetableSlotDetail, withClass bool) *models.TimetableView {
	view := &models.TimetableView{OwnerID: ownerID, Days: make([]models.TimetableDay, 0, len(s.weekDays))}
	for _, day := range s.weekDays {
		row := models.TimetableDay{Day: day, Slots: make([]models.TimetableCell, 0, len(DailyTemplate))}
		for _, tpl := range DailyTemplate {
			cell := models.TimetableCell{TemplateSlot: tpl}
			if !tpl.Break {
				cell.SubjectName = models.FreePeriod
				if slot, ok := cells[day][tpl.Period]; ok {
					cell.SubjectID = slot.SubjectID
					cell.SubjectName = deref(slot.SubjectName)
					cell.FacultyName = deref(slot.FacultyName)
					if withClass {
						cell.ClassName = slot.ClassName
					}
				}
			}
			row.Slots = append(row.Slots, cell)
		}
		view.Days = append(view.Days, row)
	}
	return view
}

func (s *TimetableService) isWeekDay(day string) bool {
	for _, d := range s.weekDays {
		if d == day {
			return true
		}
	}
	return false
}

func periodField(day string, index int) string {
	return "Days[" + day + "][" + strconv.Itoa(index) + "]"
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
