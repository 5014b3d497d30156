package calendar_tools

// Name identifies one of the calendar tools.
type Name string

const (
	CreateEventTool   Name = "create_event_tool"
	ListEventsTool    Name = "list_events_tool"
	PostponeEventTool Name = "postpone_event_tool"
	DeleteEventTool   Name = "delete_event_tool"
)

// Names lists every tool in the order it is advertised to the model.
var Names = []Name{CreateEventTool, ListEventsTool, PostponeEventTool, DeleteEventTool}

// ParseName resolves a model-supplied tool name.
func ParseName(s string) (Name, bool) {
	for _, n := range Names {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

func (n Name) String() string {
	return string(n)
}
