package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/dept-portal-api/internal/models"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

func newTestEventService(db *fakeDB, repo *fakeEvents) *EventService {
	return NewEventService(repo, &fakeClasses{db: db}, nil, nil, zap.NewNop())
}

func TestEventServiceCreate(t *testing.T) {
	repo := &fakeEvents{}
	svc := newTestEventService(newFakeDB(), repo)

	event, err := svc.Create(context.Background(), models.CreateEventRequest{
		Title:          " Lab exam ",
		Date:           "2024-06-10",
		Type:           models.EventTypeExam,
		TargetClassIDs: []string{classAID, classAID},
	}, adminActor)
	require.NoError(t, err)
	assert.Equal(t, "Lab exam", event.Title)
	assert.Equal(t, []string{classAID}, []string(event.TargetClassIDs))
	require.NotNil(t, event.CreatedBy)
	assert.Equal(t, adminID, *event.CreatedBy)
	assert.Len(t, repo.events, 1)
}

func TestEventServiceCreateUnknownTarget(t *testing.T) {
	svc := newTestEventService(newFakeDB(), &fakeEvents{})

	_, err := svc.Create(context.Background(), models.CreateEventRequest{Title: "Trip", Date: "2024-06-10", Type: models.EventTypeEvent, TargetClassIDs: []string{missingID}}, adminActor)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "TargetClassIDs[0]", appErr.Details[0].Field)

	_, err = svc.Create(context.Background(), models.CreateEventRequest{Title: "Trip", Date: "2024-06-10", Type: "PARTY"}, adminActor)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func eventOn(id, date string, targets ...string) models.Event {
	d, _ := time.Parse(dateLayout, date)
	if targets == nil {
		targets = []string{}
	}
	return models.Event{ID: id, Title: id, Date: d, Type: models.EventTypeNotice, TargetClassIDs: targets}
}

func TestEventServiceListScopesStudents(t *testing.T) {
	repo := &fakeEvents{events: []models.Event{
		eventOn("global", "2024-06-01"),
		eventOn("class-a", "2024-06-02", classAID),
		eventOn("class-b", "2024-06-03", classBID),
	}}
	svc := newTestEventService(newFakeDB(), repo)
	ctx := context.Background()

	events, _, err := svc.List(ctx, models.EventFilter{ClassID: classBID}, studentActor)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "global", events[0].ID)
	assert.Equal(t, "class-a", events[1].ID)
	assert.Equal(t, classAID, repo.lastFilter.ClassID)

	events, _, err = svc.List(ctx, models.EventFilter{}, Actor{ID: student1ID, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, repo.lastFilter.GlobalOnly)

	events, page, err := svc.List(ctx, models.EventFilter{}, adminActor)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	assert.Equal(t, 3, page.TotalCount)
}

func TestEventServiceUpcoming(t *testing.T) {
	repo := &fakeEvents{events: []models.Event{
		eventOn("past", "2024-05-01"),
		eventOn("today", "2024-06-03"),
		eventOn("later", "2024-07-01", classBID),
	}}
	svc := newTestEventService(newFakeDB(), repo)

	now := time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC)
	events, err := svc.Upcoming(context.Background(), studentActor, now, 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "today", events[0].ID)
	assert.Equal(t, 5, repo.lastFilter.PageSize)
}

func TestEventServiceDelete(t *testing.T) {
	const eventID = "0b7c6c1e-1f0a-4c1e-9a51-0000000000e1"
	repo := &fakeEvents{events: []models.Event{eventOn(eventID, "2024-06-01")}}
	svc := newTestEventService(newFakeDB(), repo)

	require.NoError(t, svc.Delete(context.Background(), eventID))
	assert.Empty(t, repo.events)
	assert.ErrorIs(t, svc.Delete(context.Background(), eventID), appErrors.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), "nope"), appErrors.ErrValidation)
}
