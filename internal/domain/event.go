package domain

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits for event text fields, counted in characters.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 1000
	MaxLocationLen    = 200
)

// Event represents a scheduled event owned by the user who created it.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TimePrecision is the resolution every store keeps timestamps at.
const TimePrecision = time.Millisecond

// StoredTime returns t in UTC at TimePrecision, the value a store reads back.
func StoredTime(t time.Time) time.Time {
	return t.UTC().Truncate(TimePrecision)
}

// NewEvent returns a new Event with the given fields. ID is set by the repository on create.
func NewEvent(input EventInput, createdBy string, createdAt time.Time) *Event {
	createdAt = StoredTime(createdAt)
	return &Event{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Date:        StoredTime(input.Date),
		Location:    input.Location,
		CreatedBy:   createdBy,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// CreatorSummary is the public view of an event's creator, joined at read time.
// swagger:model CreatorSummary
type CreatorSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventDetails is an event together with its creator summary.
// Creator is nil when the creating user no longer exists.
// swagger:model EventDetails
type EventDetails struct {
	*Event
	Creator *CreatorSummary `json:"creator"`
}

// EventInput holds the caller-supplied fields for a new event.
type EventInput struct {
	Title       string
	Description string
	Date        time.Time
	Location    string
}

// Validate checks every field and returns the first violation in field order.
func (in EventInput) Validate() error {
	if err := validateText("title", strings.TrimSpace(in.Title), MaxTitleLen); err != nil {
		return err
	}
	if err := validateText("description", in.Description, MaxDescriptionLen); err != nil {
		return err
	}
	if in.Date.IsZero() {
		return NewValidationError("date", "please provide an event date")
	}
	return validateText("location", in.Location, MaxLocationLen)
}

// EventPatch holds a partial update. Nil fields are left unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string

	// Invalid holds submitted values that could not be read, keyed by field.
	// Validate reports them; repositories ignore them.
	Invalid map[string]string
}

// Reject records that field was submitted with an unreadable value.
func (p *EventPatch) Reject(field, message string) {
	if p.Invalid == nil {
		p.Invalid = make(map[string]string)
	}
	if _, ok := p.Invalid[field]; !ok {
		p.Invalid[field] = message
	}
}

// Normalize trims the title and rounds the date in place, matching what Create stores.
func (p *EventPatch) Normalize() {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
	}
	if p.Date != nil {
		d := StoredTime(*p.Date)
		p.Date = &d
	}
}

// Validate checks only the fields present in the patch, in field order.
// A body-level rejection comes first and rejected unknown fields last.
func (p EventPatch) Validate() error {
	if msg, ok := p.Invalid["body"]; ok {
		return NewValidationError("body", msg)
	}
	if err := p.check("title", p.Title, MaxTitleLen); err != nil {
		return err
	}
	if err := p.check("description", p.Description, MaxDescriptionLen); err != nil {
		return err
	}
	if msg, ok := p.Invalid["date"]; ok {
		return NewValidationError("date", msg)
	}
	if p.Date != nil && p.Date.IsZero() {
		return NewValidationError("date", "please provide an event date")
	}
	if err := p.check("location", p.Location, MaxLocationLen); err != nil {
		return err
	}
	if len(p.Invalid) > 0 {
		field := slices.Sorted(maps.Keys(p.Invalid))[0]
		return NewValidationError(field, p.Invalid[field])
	}
	return nil
}

func (p EventPatch) check(field string, value *string, max int) error {
	if msg, ok := p.Invalid[field]; ok {
		return NewValidationError(field, msg)
	}
	if value == nil {
		return nil
	}
	return validateText(field, strings.TrimSpace(*value), max)
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Date == nil && p.Location == nil
}

// Apply writes the present patch fields onto e.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
}

func validateText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, "please provide an event "+field)
	}
	if utf8.RuneCountInString(value) > max {
		return NewValidationError(field, fmt.Sprintf("%s cannot be more than %d characters", field, max))
	}
	return nil
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// ListAll returns every event ordered by Date ascending; equal dates keep insertion order.
	ListAll(ctx context.Context) ([]*Event, error)
	Update(ctx context.Context, id string, patch EventPatch, updatedAt time.Time) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// CalendarEncoder renders events as an iCalendar document.
type CalendarEncoder interface {
	Encode(events []*EventDetails) ([]byte, error)
}

// EventService defines the business logic for events.
type EventService interface {
	ListEvents(ctx context.Context) ([]*EventDetails, error)
	GetEvent(ctx context.Context, id string) (*EventDetails, error)
	CreateEvent(ctx context.Context, actor Actor, input EventInput) (*EventDetails, error)
	UpdateEvent(ctx context.Context, actor Actor, id string, patch EventPatch) (*EventDetails, error)
	DeleteEvent(ctx context.Context, actor Actor, id string) error
	CalendarFeed(ctx context.Context) ([]byte, error)
}
