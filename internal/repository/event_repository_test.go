package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/models"
)

func TestEventListForClassIncludesGlobal(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "date", "description", "type", "target_class_ids", "created_by", "created_at", "updated_at"}).
		AddRow("e1", "Sports Day", now, "", "EVENT", "{}", nil, now, now).
		AddRow("e2", "Lab exam", now, "", "EXAM", "{c1}", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("(cardinality(target_class_ids) = 0 OR $1 = ANY(target_class_ids))")).
		WithArgs("c1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM events")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	events, total, err := repo.List(context.Background(), models.EventFilter{ClassID: "c1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Empty(t, events[0].TargetClassIDs)
	assert.Equal(t, []string{"c1"}, []string(events[1].TargetClassIDs))
	assert.Equal(t, 2, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventCreateDefaultsTargets(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(0, 1))

	event := &models.Event{Title: "Holiday", Date: time.Now(), Type: models.EventTypeHoliday}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotNil(t, event.TargetClassIDs)
	assert.NotEmpty(t, event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventListGlobalOnly(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND cardinality(target_class_ids) = 0 ORDER BY date ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "date", "description", "type", "target_class_ids", "created_by", "created_at", "updated_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM events")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	events, total, err := repo.List(context.Background(), models.EventFilter{GlobalOnly: true})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
