package instrumentation

import "testing"

func TestNormalizeLabel(t *testing.T) {
	known := map[string]bool{"list_events_tool": true, "create_event_tool": true}

	tests := []struct {
		value    string
		expected string
	}{
		{"list_events_tool", "list_events_tool"},
		{"create_event_tool", "create_event_tool"},
		{"send_email", LabelOther},
		{"", LabelOther},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := NormalizeLabel(tt.value, known); got != tt.expected {
				t.Errorf("NormalizeLabel(%q) = %q, want %q", tt.value, got, tt.expected)
			}
		})
	}
}
