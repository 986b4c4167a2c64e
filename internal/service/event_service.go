package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type eventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
}

// EventService manages events and notices.
type EventService struct {
	repo      eventRepository
	classes   classFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the event service.
func NewEventService(repo eventRepository, classes classFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, classes: classes, cache: cache, validator: ensureValidator(validate), logger: logger}
}

// Create posts an event. Without target classes the event is visible to everyone.
func (s *EventService) Create(ctx context.Context, req models.CreateEventRequest, actor Actor) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid event payload")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid event date")
	}

	targets := make([]string, 0, len(req.TargetClassIDs))
	seen := make(map[string]bool, len(req.TargetClassIDs))
	var details []appErrors.FieldError
	for i, classID := range req.TargetClassIDs {
		if seen[classID] {
			continue
		}
		seen[classID] = true
		if _, err := s.classes.FindByID(ctx, classID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				details = append(details, appErrors.FieldError{Field: fmt.Sprintf("TargetClassIDs[%d]", i), Rule: "class_exists"})
				continue
			}
			s.logger.Error("load event target class failed", zap.String("class_id", classID), zap.Error(err))
			return nil, appErrors.Internal(err, "failed to load class")
		}
		targets = append(targets, classID)
	}
	if len(details) > 0 {
		appErr := appErrors.Clone(appErrors.ErrValidation, "unknown target class")
		appErr.Details = details
		return nil, appErr
	}

	event := &models.Event{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(req.Title),
		Date:           date,
		Description:    strings.TrimSpace(req.Description),
		Type:           req.Type,
		TargetClassIDs: targets,
	}
	if actor.ID != "" {
		event.CreatedBy = &actor.ID
	}
	if err := s.repo.Create(ctx, event); err != nil {
		s.logger.Error("create event failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to create event")
	}
	_ = s.cache.Invalidate(ctx, "dash:*")
	return event, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid event id")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		s.logger.Error("load event failed", zap.String("event_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to load event")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("delete event failed", zap.String("event_id", id), zap.Error(err))
		return appErrors.Internal(err, "failed to delete event")
	}
	_ = s.cache.Invalidate(ctx, "dash:*")
	return nil
}

// List returns events visible to the actor. Students only see global events and their class's.
func (s *EventService) List(ctx context.Context, filter models.EventFilter, actor Actor) ([]models.Event, *models.Pagination, error) {
	filter = scopeEvents(filter, actor)
	if filter.Type != "" && !validEventType(filter.Type) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid event type")
	}
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list events failed", zap.Error(err))
		return nil, nil, appErrors.Internal(err, "failed to list events")
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, pagination(filter.Page, filter.PageSize, total), nil
}

// Upcoming returns up to limit events the actor can see, dated from the day of now.
func (s *EventService) Upcoming(ctx context.Context, actor Actor, now time.Time, limit int) ([]models.Event, error) {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	filter := scopeEvents(models.EventFilter{From: &from, Page: 1, PageSize: limit}, actor)
	events, _, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list upcoming events failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to list events")
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func scopeEvents(filter models.EventFilter, actor Actor) models.EventFilter {
	if actor.Role == models.RoleStudent {
		filter.ClassID = actor.ClassID
		filter.GlobalOnly = actor.ClassID == ""
	}
	return filter
}

func validEventType(t models.EventType) bool {
	switch t {
	case models.EventTypeEvent, models.EventTypeNotice, models.EventTypeHoliday, models.EventTypeExam:
		return true
	}
	return false
}
