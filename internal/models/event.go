package models

import (
	"time"

	"github.com/lib/pq"
)

// EventType tags an event or notice.
type EventType string

const (
	EventTypeEvent   EventType = "EVENT"
	EventTypeNotice  EventType = "NOTICE"
	EventTypeHoliday EventType = "HOLIDAY"
	EventTypeExam    EventType = "EXAM"
)

// Event is a dated event or notice. Empty TargetClassIDs means it is global.
type Event struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Date           time.Time      `db:"date" json:"date"`
	Description    string         `db:"description" json:"description"`
	Type           EventType      `db:"type" json:"type"`
	TargetClassIDs pq.StringArray `db:"target_class_ids" json:"target_class_ids"`
	CreatedBy      *string        `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// EventFilter lists events. ClassID keeps global events plus that class's;
// GlobalOnly drops every targeted event.
type EventFilter struct {
	ClassID    string
	GlobalOnly bool
	Type       EventType
	From       *time.Time
	Page       int
	PageSize   int
}

// CreateEventRequest is the payload for posting an event or notice.
type CreateEventRequest struct {
	Title          string    `json:"title" validate:"required,max=200"`
	Date           string    `json:"date" validate:"required,datetime=2006-01-02"`
	Description    string    `json:"description" validate:"max=4000"`
	Type           EventType `json:"type" validate:"required,oneof=EVENT NOTICE HOLIDAY EXAM"`
	TargetClassIDs []string  `json:"target_class_ids" validate:"omitempty,dive,uuid"`
}
