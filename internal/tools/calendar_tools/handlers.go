package calendar_tools

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/teemow/calendaragent/internal/calendar"
	"github.com/teemow/calendaragent/internal/tools/common"
)

// defaultListWindow is the listing range used when end_time is omitted.
const defaultListWindow = 7 * 24 * time.Hour

type createEventArgs struct {
	Title           string   `json:"title"`
	StartTime       string   `json:"start_time"`
	DurationMinutes int      `json:"duration_minutes"`
	Description     string   `json:"description"`
	Location        string   `json:"location"`
	Attendees       []string `json:"attendees"`
}

type listEventsArgs struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type postponeEventArgs struct {
	EventID      string `json:"event_id"`
	NewStartTime string `json:"new_start_time"`
}

type deleteEventArgs struct {
	EventID string `json:"event_id"`
}

func (r *Registry) handleCreateEvent(ctx context.Context, args map[string]any) (common.Result, error) {
	var in createEventArgs
	if err := common.DecodeArgs(args, &in); err != nil {
		return common.ErrorResult(err), nil
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return common.ErrorResultf("title is required"), nil
	}
	if strings.TrimSpace(in.StartTime) == "" {
		return common.ErrorResultf("start_time is required"), nil
	}
	start, err := parseTime(in.StartTime, r.loc)
	if err != nil {
		return common.ErrorResultf("invalid start_time: %v", err), nil
	}
	if in.DurationMinutes <= 0 {
		return common.ErrorResultf("duration_minutes must be a positive number of minutes"), nil
	}

	event, err := r.backend.CreateEvent(ctx, calendar.EventInput{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		Start:       start,
		End:         start.Add(time.Duration(in.DurationMinutes) * time.Minute),
		TimeZone:    r.zoneFor(start),
		Attendees:   in.Attendees,
	})
	if err != nil {
		return common.ErrorResultf("failed to create event: %v", err), nil
	}
	return common.JSONResult(event)
}

func (r *Registry) handleListEvents(ctx context.Context, args map[string]any) (common.Result, error) {
	var in listEventsArgs
	if err := common.DecodeArgs(args, &in); err != nil {
		return common.ErrorResult(err), nil
	}

	start := r.now().In(r.loc)
	if strings.TrimSpace(in.StartTime) != "" {
		t, err := parseTime(in.StartTime, r.loc)
		if err != nil {
			return common.ErrorResultf("invalid start_time: %v", err), nil
		}
		start = t
	}
	end := start.Add(defaultListWindow)
	if strings.TrimSpace(in.EndTime) != "" {
		t, err := parseTime(in.EndTime, r.loc)
		if err != nil {
			return common.ErrorResultf("invalid end_time: %v", err), nil
		}
		end = t
	}
	if !end.After(start) {
		return common.ErrorResultf("end_time must be after start_time"), nil
	}
	if in.MaxResults < 0 {
		return common.ErrorResultf("max_results must not be negative"), nil
	}

	events, err := r.backend.ListEvents(ctx, calendar.ListQuery{
		TimeMin:    start,
		TimeMax:    end,
		Query:      strings.TrimSpace(in.Query),
		MaxResults: in.MaxResults,
	})
	if err != nil {
		return common.ErrorResultf("failed to list events: %v", err), nil
	}
	if events == nil {
		events = []calendar.Event{}
	}
	return common.JSONResult(map[string]any{
		"count":  len(events),
		"events": events,
	})
}

func (r *Registry) handlePostponeEvent(ctx context.Context, args map[string]any) (common.Result, error) {
	var in postponeEventArgs
	if err := common.DecodeArgs(args, &in); err != nil {
		return common.ErrorResult(err), nil
	}

	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		return common.ErrorResultf("event_id is required"), nil
	}
	if strings.TrimSpace(in.NewStartTime) == "" {
		return common.ErrorResultf("new_start_time is required"), nil
	}
	newStart, err := parseTime(in.NewStartTime, r.loc)
	if err != nil {
		return common.ErrorResultf("invalid new_start_time: %v", err), nil
	}

	event, err := r.backend.MoveEvent(ctx, eventID, newStart)
	if err != nil {
		if errors.Is(err, calendar.ErrEventNotFound) {
			return common.ErrorResultf("event %s not found", eventID), nil
		}
		return common.ErrorResultf("failed to postpone event: %v", err), nil
	}
	return common.JSONResult(event)
}

func (r *Registry) handleDeleteEvent(ctx context.Context, args map[string]any) (common.Result, error) {
	var in deleteEventArgs
	if err := common.DecodeArgs(args, &in); err != nil {
		return common.ErrorResult(err), nil
	}

	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		return common.ErrorResultf("event_id is required"), nil
	}

	if err := r.backend.DeleteEvent(ctx, eventID); err != nil {
		if errors.Is(err, calendar.ErrEventNotFound) {
			return common.ErrorResultf("event %s not found", eventID), nil
		}
		return common.ErrorResultf("failed to delete event: %v", err), nil
	}
	return common.JSONResult(map[string]any{
		"deleted":  true,
		"event_id": eventID,
	})
}

// zoneFor names the zone of t. Unnamed fixed offsets parsed from RFC3339
// values fall back to the reference location.
func (r *Registry) zoneFor(t time.Time) string {
	name := t.Location().String()
	if name == "" || name == "Local" {
		return r.loc.String()
	}
	return name
}
