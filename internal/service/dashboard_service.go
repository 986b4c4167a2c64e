package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/dto"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/pkg/cache"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type roleCounter interface {
	CountByRole(ctx context.Context, role models.UserRole) (int, error)
}

type entityCounter interface {
	Count(ctx context.Context) (int, error)
}

type inChargeLister interface {
	ListByInCharge(ctx context.Context, facultyID string) ([]models.Class, error)
}

type upcomingEventLister interface {
	Upcoming(ctx context.Context, actor Actor, now time.Time, limit int) ([]models.Event, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL            time.Duration
	UpcomingEventsLimit int
}

// DashboardService orchestrates composition of dashboard payloads.
type DashboardService struct {
	users      roleCounter
	students   userFinder
	classes    entityCounter
	subjects   entityCounter
	inCharge   inChargeLister
	handled    facultySubjectLister
	events     upcomingEventLister
	timetable  *TimetableService
	attendance *AttendanceService
	reports    *ReportService
	cache      *CacheService
	logger     *zap.Logger
	now        func() time.Time
	cfg        DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users      roleCounter
	Students   userFinder
	Classes    entityCounter
	Subjects   entityCounter
	InCharge   inChargeLister
	Handled    facultySubjectLister
	Events     upcomingEventLister
	Timetable  *TimetableService
	Attendance *AttendanceService
	Reports    *ReportService
	Cache      *CacheService
	Logger     *zap.Logger
	Config     DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.UpcomingEventsLimit <= 0 {
		cfg.UpcomingEventsLimit = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:      params.Users,
		students:   params.Students,
		classes:    params.Classes,
		subjects:   params.Subjects,
		inCharge:   params.InCharge,
		handled:    params.Handled,
		events:     params.Events,
		timetable:  params.Timetable,
		attendance: params.Attendance,
		reports:    params.Reports,
		cache:      params.Cache,
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
	}
}

// Admin returns department totals and upcoming events. The bool reports a cache hit.
func (s *DashboardService) Admin(ctx context.Context, actor Actor) (*dto.AdminDashboardResponse, bool, error) {
	now := s.now().UTC()
	key := cache.Key("dash", "admin", now.Format(dateLayout))
	return cachedLookup(ctx, s.cache, key, s.cfg.CacheTTL, func(ctx context.Context) (*dto.AdminDashboardResponse, error) {
		return s.composeAdmin(ctx, actor, now)
	})
}

// Faculty returns the faculty member's classes, subjects, today's row and watch counts.
func (s *DashboardService) Faculty(ctx context.Context, actor Actor) (*dto.FacultyDashboardResponse, bool, error) {
	if actor.Role != models.RoleFaculty {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "faculty dashboard is only available to faculty")
	}
	now := s.now().UTC()
	key := cache.Key("dash", "faculty", actor.ID, now.Format(dateLayout))
	return cachedLookup(ctx, s.cache, key, s.cfg.CacheTTL, func(ctx context.Context) (*dto.FacultyDashboardResponse, error) {
		return s.composeFaculty(ctx, actor, now)
	})
}

// Student returns the student's attendance, performance, today's row and class events.
func (s *DashboardService) Student(ctx context.Context, actor Actor) (*dto.StudentDashboardResponse, bool, error) {
	if actor.Role != models.RoleStudent {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "student dashboard is only available to students")
	}
	now := s.now().UTC()
	key := cache.Key("dash", "student", actor.ID, now.Format(dateLayout))
	return cachedLookup(ctx, s.cache, key, s.cfg.CacheTTL, func(ctx context.Context) (*dto.StudentDashboardResponse, error) {
		return s.composeStudent(ctx, actor, now)
	})
}

func (s *DashboardService) composeAdmin(ctx context.Context, actor Actor, now time.Time) (*dto.AdminDashboardResponse, error) {
	var counts dto.DashboardCounts
	var err error
	if counts.Students, err = s.users.CountByRole(ctx, models.RoleStudent); err != nil {
		return nil, s.storageError(err, "count students failed")
	}
	if counts.Faculty, err = s.users.CountByRole(ctx, models.RoleFaculty); err != nil {
		return nil, s.storageError(err, "count faculty failed")
	}
	if counts.Classes, err = s.classes.Count(ctx); err != nil {
		return nil, s.storageError(err, "count classes failed")
	}
	if counts.Subjects, err = s.subjects.Count(ctx); err != nil {
		return nil, s.storageError(err, "count subjects failed")
	}
	events, err := s.events.Upcoming(ctx, actor, now, s.cfg.UpcomingEventsLimit)
	if err != nil {
		return nil, err
	}
	return &dto.AdminDashboardResponse{Counts: counts, UpcomingEvents: events, GeneratedAt: now}, nil
}

func (s *DashboardService) composeFaculty(ctx context.Context, actor Actor, now time.Time) (*dto.FacultyDashboardResponse, error) {
	classes, err := s.inCharge.ListByInCharge(ctx, actor.ID)
	if err != nil {
		return nil, s.storageError(err, "list in-charge classes failed")
	}
	subjects, err := s.handled.ListByFaculty(ctx, actor.ID)
	if err != nil {
		return nil, s.storageError(err, "list faculty subjects failed")
	}
	view, err := s.timetable.facultyView(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	watchlist := make([]dto.SubjectWatchSummary, 0, len(subjects))
	for _, subject := range subjects {
		count, err := s.reports.studentsToWatch(ctx, subject.ClassID, subject.ID)
		if err != nil {
			return nil, err
		}
		watchlist = append(watchlist, dto.SubjectWatchSummary{
			SubjectID:       subject.ID,
			SubjectName:     subject.Name,
			ClassID:         subject.ClassID,
			StudentsToWatch: count,
		})
	}

	if classes == nil {
		classes = []models.Class{}
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return &dto.FacultyDashboardResponse{
		FacultyID:       actor.ID,
		InChargeClasses: classes,
		Subjects:        subjects,
		Today:           s.timetable.Today(view),
		Watchlist:       watchlist,
		GeneratedAt:     now,
	}, nil
}

func (s *DashboardService) composeStudent(ctx context.Context, actor Actor, now time.Time) (*dto.StudentDashboardResponse, error) {
	student, err := loadStudent(ctx, s.students, s.logger, actor.ID)
	if err != nil {
		return nil, err
	}
	attendance, err := s.attendance.studentSummary(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	performance, err := s.reports.studentPerformance(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	view, err := s.timetable.studentView(ctx, student)
	if err != nil {
		return nil, err
	}

	// the token may predate a class change, so scope events by the stored class
	scoped := actor
	scoped.ClassID = ""
	if student.ClassID != nil {
		scoped.ClassID = *student.ClassID
	}
	events, err := s.events.Upcoming(ctx, scoped, now, s.cfg.UpcomingEventsLimit)
	if err != nil {
		return nil, err
	}

	return &dto.StudentDashboardResponse{
		StudentID:      student.ID,
		ClassID:        student.ClassID,
		Attendance:     *attendance,
		Performance:    *performance,
		Today:          s.timetable.Today(view),
		UpcomingEvents: events,
		GeneratedAt:    now,
	}, nil
}

func (s *DashboardService) storageError(err error, msg string) error {
	s.logger.Error(msg, zap.Error(err))
	return appErrors.Internal(err, "failed to load dashboard")
}
