package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_AppendAndLast(t *testing.T) {
	s := &State{}
	assert.Nil(t, s.Last())
	assert.Equal(t, 0, s.Len())

	s.Append(UserMessage{Content: "hi"}, nil, AssistantMessage{Content: "hello"})
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, AssistantMessage{Content: "hello"}, s.Last())
}

func TestState_MessagesReturnsCopy(t *testing.T) {
	s := NewState(UserMessage{Content: "hi"})
	msgs := s.Messages()
	msgs[0] = UserMessage{Content: "changed"}

	assert.Equal(t, UserMessage{Content: "hi"}, s.Messages()[0])
}

func TestState_LatestUser(t *testing.T) {
	s := NewState(
		UserMessage{Content: "first"},
		AssistantMessage{Content: "ok"},
		UserMessage{Content: "second"},
		AssistantMessage{Content: "ok again"},
	)
	m, ok := s.LatestUser()
	require.True(t, ok)
	assert.Equal(t, "second", m.Content)

	_, ok = (&State{}).LatestUser()
	assert.False(t, ok)
}

func TestState_TrailingToolResults(t *testing.T) {
	tests := []struct {
		name string
		msgs []Message
		want []ToolResultMessage
	}{
		{
			name: "empty",
			want: []ToolResultMessage{},
		},
		{
			name: "no trailing results",
			msgs: []Message{UserMessage{Content: "hi"}, AssistantMessage{Content: "hello"}},
			want: []ToolResultMessage{},
		},
		{
			name: "two trailing results",
			msgs: []Message{
				UserMessage{Content: "hi"},
				ToolResultMessage{CallID: "old", ToolName: "x", Content: "stale"},
				AssistantMessage{ToolCalls: []ToolCall{{Name: "a", CallID: "1"}, {Name: "b", CallID: "2"}}},
				ToolResultMessage{CallID: "1", ToolName: "a", Content: "r1"},
				ToolResultMessage{CallID: "2", ToolName: "b", Content: "r2"},
			},
			want: []ToolResultMessage{
				{CallID: "1", ToolName: "a", Content: "r1"},
				{CallID: "2", ToolName: "b", Content: "r2"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState(tt.msgs...)
			assert.Equal(t, tt.want, s.TrailingToolResults())
		})
	}
}

func TestState_PendingToolCalls(t *testing.T) {
	calls := []ToolCall{{Name: "list_events_tool", CallID: "c1"}}
	s := NewState(UserMessage{Content: "hi"}, AssistantMessage{ToolCalls: calls})
	assert.Equal(t, calls, s.PendingToolCalls())

	s.Append(ToolResultMessage{CallID: "c1", ToolName: "list_events_tool", Content: "{}"})
	assert.Nil(t, s.PendingToolCalls())
}

func TestWithContent(t *testing.T) {
	orig := AssistantMessage{Content: "a", ToolCalls: []ToolCall{{Name: "t", CallID: "1"}}}
	got := WithContent(orig, "b").(AssistantMessage)

	assert.Equal(t, "b", got.Content)
	assert.Equal(t, "a", orig.Content)
	assert.Equal(t, orig.ToolCalls, got.ToolCalls)

	u := WithContent(UserMessage{Content: "x"}, "prefix x")
	assert.Equal(t, UserMessage{Content: "prefix x"}, u)
}

func TestState_JSON(t *testing.T) {
	s := NewState(
		UserMessage{Content: "book a meeting"},
		AssistantMessage{ToolCalls: []ToolCall{{
			Name:      "create_event_tool",
			Arguments: map[string]any{"title": "Standup"},
			CallID:    "call_1",
		}}},
		ToolResultMessage{CallID: "call_1", ToolName: "create_event_tool", Content: `{"id":"e1"}`},
		ToolResultMessage{ToolName: "tool_dispatch_node", Content: "An error occurred while dispatching tools."},
		AssistantMessage{Content: "Done."},
	)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw struct {
		Messages []map[string]any `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw.Messages, 5)
	assert.Equal(t, "user", raw.Messages[0]["role"])
	assert.Equal(t, "call_1", raw.Messages[2]["call_id"])

	callID, present := raw.Messages[3]["call_id"]
	assert.True(t, present, "dispatcher result must carry a call_id key")
	assert.Nil(t, callID)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.Messages(), decoded.Messages())
}

func TestUnmarshalMessage_UnknownRole(t *testing.T) {
	_, err := UnmarshalMessage([]byte(`{"role":"system","content":"x"}`))
	assert.Error(t, err)
}
