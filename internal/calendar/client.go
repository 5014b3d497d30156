package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/calendaragent/internal/google"
	"github.com/teemow/calendaragent/internal/instrumentation"
)

// DefaultCalendarID is the calendar used when none is configured.
const DefaultCalendarID = "primary"

// Client is a Backend on top of the Google Calendar API.
type Client struct {
	svc        *calendar.Service
	calendarID string
}

// NewClient creates a Google Calendar client for calendarID. Options are
// passed to the API service, typically option.WithHTTPClient.
func NewClient(ctx context.Context, calendarID string, opts ...option.ClientOption) (*Client, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc, calendarID: calendarID}, nil
}

// NewClientForAccount creates a Google Calendar client authenticated with the
// stored OAuth token of account.
func NewClientForAccount(ctx context.Context, account, calendarID string, conf *oauth2.Config, provider google.TokenProvider) (*Client, error) {
	httpClient, err := google.NewHTTPClient(ctx, conf, provider, account)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, calendarID, option.WithHTTPClient(httpClient))
}

// Name implements Backend.
func (c *Client) Name() string {
	return instrumentation.BackendGoogle
}

// CalendarID returns the calendar this client operates on.
func (c *Client) CalendarID() string {
	return c.calendarID
}

// ListEvents lists events in the configured calendar within a time range.
// Recurring events are expanded into single instances.
func (c *Client) ListEvents(ctx context.Context, query ListQuery) ([]Event, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	call := c.svc.Events.List(c.calendarID).
		TimeMin(query.TimeMin.Format(time.RFC3339)).
		TimeMax(query.TimeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(int64(query.limit()))

	if query.Query != "" {
		call = call.Q(query.Query)
	}

	events, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	out := make([]Event, 0, len(events.Items))
	for _, item := range events.Items {
		out = append(out, toEvent(item))
	}
	return out, nil
}

// GetEvent retrieves a specific event by ID.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	item, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("get event", eventID, err)
	}
	if item.Status == "cancelled" {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
	}

	ev := toEvent(item)
	return &ev, nil
}

// CreateEvent creates a new calendar event.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*Event, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	zone := input.zoneName()
	item := &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		Location:    input.Location,
		Start:       &calendar.EventDateTime{DateTime: input.Start.Format(time.RFC3339), TimeZone: zone},
		End:         &calendar.EventDateTime{DateTime: input.End.Format(time.RFC3339), TimeZone: zone},
	}

	for _, email := range input.Attendees {
		item.Attendees = append(item.Attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := c.svc.Events.Insert(c.calendarID, item).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	ev := toEvent(created)
	return &ev, nil
}

// MoveEvent moves an event to newStart keeping its duration.
func (c *Client) MoveEvent(ctx context.Context, eventID string, newStart time.Time) (*Event, error) {
	existing, err := c.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	duration := existing.Duration()
	if duration <= 0 {
		return nil, fmt.Errorf("event %s has no usable duration", eventID)
	}

	zone := existing.TimeZone
	if zone == "" {
		zone = newStart.Location().String()
	}

	patch := &calendar.Event{
		Start: &calendar.EventDateTime{DateTime: newStart.Format(time.RFC3339), TimeZone: zone},
		End:   &calendar.EventDateTime{DateTime: newStart.Add(duration).Format(time.RFC3339), TimeZone: zone},
	}

	updated, err := c.svc.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError("move event", eventID, err)
	}

	ev := toEvent(updated)
	return &ev, nil
}

// DeleteEvent deletes a calendar event.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return wrapAPIError("delete event", eventID, err)
	}
	return nil
}

// wrapAPIError maps 404 and 410 responses to ErrEventNotFound.
func wrapAPIError(op, eventID string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return fmt.Errorf("failed to %s %s: %w", op, eventID, ErrEventNotFound)
	}
	return fmt.Errorf("failed to %s %s: %w", op, eventID, err)
}

// toEvent converts a Google Calendar event to an Event.
func toEvent(item *calendar.Event) Event {
	if item == nil {
		return Event{}
	}

	ev := Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      item.Status,
		Link:        item.HtmlLink,
	}

	if item.Start != nil {
		ev.Start = parseEventDateTime(item.Start)
		ev.TimeZone = item.Start.TimeZone
	}
	if item.End != nil {
		ev.End = parseEventDateTime(item.End)
	}

	for _, att := range item.Attendees {
		if att != nil && att.Email != "" {
			ev.Attendees = append(ev.Attendees, att.Email)
		}
	}

	return ev
}

// parseEventDateTime handles both timed and all-day values.
func parseEventDateTime(dt *calendar.EventDateTime) time.Time {
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			if dt.TimeZone != "" {
				if loc, err := time.LoadLocation(dt.TimeZone); err == nil {
					return t.In(loc)
				}
			}
			return t
		}
	}
	if dt.Date != "" {
		loc := time.UTC
		if dt.TimeZone != "" {
			if l, err := time.LoadLocation(dt.TimeZone); err == nil {
				loc = l
			}
		}
		if t, err := time.ParseInLocation("2006-01-02", dt.Date, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}
