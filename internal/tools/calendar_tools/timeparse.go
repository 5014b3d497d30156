package calendar_tools

import (
	"fmt"
	"strings"
	"time"
)

// localLayouts are accepted in addition to RFC3339. Values in these layouts
// carry no zone and are read in the registry's reference location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// parseTime parses an RFC3339 or zone-less timestamp.
func parseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q, use RFC3339 (2006-01-02T15:04:05Z07:00) or 2006-01-02T15:04:05", value)
}
