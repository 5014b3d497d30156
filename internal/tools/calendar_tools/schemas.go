package calendar_tools

// Spec describes a tool to the model: its name, a description and a JSON
// Schema object for its arguments.
type Spec struct {
	Name        Name
	Description string
	Parameters  map[string]any
}

const timeFormatHint = "RFC3339 (e.g. 2025-01-15T14:00:00+05:30) or local time 2025-01-15T14:00:00"

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

var specs = map[Name]Spec{
	CreateEventTool: {
		Name:        CreateEventTool,
		Description: "Create a new calendar event starting at start_time and lasting duration_minutes.",
		Parameters: objectSchema(map[string]any{
			"title":      stringProp("Event title"),
			"start_time": stringProp("Start time, " + timeFormatHint),
			"duration_minutes": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Length of the event in minutes",
			},
			"description": stringProp("Event description"),
			"location":    stringProp("Event location"),
			"attendees": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Attendee email addresses",
			},
		}, "title", "start_time", "duration_minutes"),
	},
	ListEventsTool: {
		Name:        ListEventsTool,
		Description: "List calendar events in a time range. Defaults to the next 7 days.",
		Parameters: objectSchema(map[string]any{
			"start_time": stringProp("Range start, " + timeFormatHint + ". Defaults to now."),
			"end_time":   stringProp("Range end, " + timeFormatHint + ". Defaults to 7 days after start_time."),
			"query":      stringProp("Free text to match against title, description and location"),
			"max_results": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"description": "Maximum number of events to return",
			},
		}),
	},
	PostponeEventTool: {
		Name:        PostponeEventTool,
		Description: "Move an existing event to a new start time. The event keeps its duration.",
		Parameters: objectSchema(map[string]any{
			"event_id":       stringProp("ID of the event, as returned by list_events_tool"),
			"new_start_time": stringProp("New start time, " + timeFormatHint),
		}, "event_id", "new_start_time"),
	},
	DeleteEventTool: {
		Name:        DeleteEventTool,
		Description: "Delete a calendar event by ID.",
		Parameters: objectSchema(map[string]any{
			"event_id": stringProp("ID of the event, as returned by list_events_tool"),
		}, "event_id"),
	},
}
