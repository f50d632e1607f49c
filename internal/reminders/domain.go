package reminders

import "time"

// Reminder is a dated follow-up for an agent.
type Reminder struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes,omitempty"`
	DueAt      time.Time  `json:"due_at"`
	QueryID    *int64     `json:"query_id,omitempty"`
	Done       bool       `json:"done"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	CreatedBy  int64      `json:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CreateRequest is the payload of POST /reminders.
type CreateRequest struct {
	Title   string    `json:"title" validate:"required,max=200"`
	Notes   string    `json:"notes"`
	DueAt   time.Time `json:"due_at" validate:"required"`
	QueryID *int64    `json:"query_id" validate:"omitempty,gt=0"`
}

// ListRequest filters reminders.
type ListRequest struct {
	From        *time.Time
	To          *time.Time
	IncludeDone bool
}

// EventKind labels a calendar entry.
type EventKind string

const (
	EventReminder EventKind = "reminder"
	EventTravel   EventKind = "travel"
	EventReturn   EventKind = "return"
	EventService  EventKind = "service"
)

// Event is one entry of the calendar view.
type Event struct {
	Date        time.Time `json:"date"`
	Kind        EventKind `json:"kind"`
	Title       string    `json:"title"`
	QueryID     *int64    `json:"query_id,omitempty"`
	QueryNumber string    `json:"query_number,omitempty"`
	SourceID    int64     `json:"source_id"`
	Done        bool      `json:"done,omitempty"`
}
