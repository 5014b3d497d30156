package calendar_tools

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339 utc", value: "2025-01-15T14:00:00Z", want: time.Date(2025, 1, 15, 14, 0, 0, 0, time.UTC)},
		{name: "rfc3339 offset", value: "2025-01-15T14:00:00+02:00", want: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)},
		{name: "local seconds", value: "2025-01-15T14:00:00", want: time.Date(2025, 1, 15, 14, 0, 0, 0, loc)},
		{name: "local space minutes", value: "2025-01-15 14:00", want: time.Date(2025, 1, 15, 14, 0, 0, 0, loc)},
		{name: "local minutes", value: " 2025-01-15T14:00 ", want: time.Date(2025, 1, 15, 14, 0, 0, 0, loc)},
		{name: "empty", value: "", wantErr: true},
		{name: "garbage", value: "tomorrow at 3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.value, loc)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseName(t *testing.T) {
	for _, n := range Names {
		got, ok := ParseName(n.String())
		assert.True(t, ok)
		assert.Equal(t, n, got)
	}
	_, ok := ParseName("CREATE_EVENT_TOOL")
	assert.False(t, ok)
}
