package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone database for minimal images
)

// ErrEventNotFound is returned when an event id does not exist in the calendar.
var ErrEventNotFound = errors.New("event not found")

// DefaultMaxResults bounds a listing when the caller does not set a limit.
const DefaultMaxResults = 50

// MaxResultsLimit is the largest listing a backend will return.
const MaxResultsLimit = 250

// Backend is the calendar boundary used by the tool adapter.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	CreateEvent(ctx context.Context, input EventInput) (*Event, error)
	ListEvents(ctx context.Context, query ListQuery) ([]Event, error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	// MoveEvent shifts an event to newStart and keeps its duration.
	MoveEvent(ctx context.Context, eventID string, newStart time.Time) (*Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Event is a calendar event as returned to the model.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	TimeZone    string    `json:"time_zone,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
	Status      string    `json:"status,omitempty"`
	Link        string    `json:"link,omitempty"`
}

// Duration returns the length of the event.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// EventInput holds the fields needed to create an event.
type EventInput struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// TimeZone is an IANA zone name; empty means the zone of Start.
	TimeZone  string
	Attendees []string
}

// Validate checks required fields and time ordering.
func (in EventInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if in.Start.IsZero() {
		return fmt.Errorf("start time is required")
	}
	if !in.End.After(in.Start) {
		return fmt.Errorf("end time must be after start time")
	}
	return nil
}

// zoneName returns the explicit zone or the location name of Start.
func (in EventInput) zoneName() string {
	if in.TimeZone != "" {
		return in.TimeZone
	}
	if name := in.Start.Location().String(); name != "" && name != "Local" {
		return name
	}
	return "UTC"
}

// ListQuery selects events overlapping [TimeMin, TimeMax).
type ListQuery struct {
	TimeMin    time.Time
	TimeMax    time.Time
	Query      string
	MaxResults int
}

// Validate checks the time window.
func (q ListQuery) Validate() error {
	if q.TimeMin.IsZero() || q.TimeMax.IsZero() {
		return fmt.Errorf("time range is required")
	}
	if !q.TimeMax.After(q.TimeMin) {
		return fmt.Errorf("end time must be after start time")
	}
	if q.MaxResults < 0 {
		return fmt.Errorf("max results must not be negative")
	}
	return nil
}

// limit returns MaxResults clamped to (0, MaxResultsLimit].
func (q ListQuery) limit() int {
	switch {
	case q.MaxResults <= 0:
		return DefaultMaxResults
	case q.MaxResults > MaxResultsLimit:
		return MaxResultsLimit
	default:
		return q.MaxResults
	}
}
