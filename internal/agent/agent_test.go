package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calendaragent/internal/calendar"
	"github.com/teemow/calendaragent/internal/conversation"
	"github.com/teemow/calendaragent/internal/llm"
	"github.com/teemow/calendaragent/internal/logging"
	"github.com/teemow/calendaragent/internal/tools/calendar_tools"
	"github.com/teemow/calendaragent/internal/tools/common"

	_ "time/tzdata"
)

type chatReply struct {
	msg conversation.AssistantMessage
	err error
}

// scriptedClient replays chat replies in order and answers every Complete
// call with completeText or completeErr.
type scriptedClient struct {
	mu           sync.Mutex
	replies      []chatReply
	completeText string
	completeErr  error

	requests []llm.Request
	prompts  []string
}

func (c *scriptedClient) Chat(_ context.Context, req llm.Request) (conversation.AssistantMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if len(c.replies) == 0 {
		return conversation.AssistantMessage{}, errors.New("no scripted reply")
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r.msg, r.err
}

func (c *scriptedClient) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.completeText, c.completeErr
}

var fixedNow = time.Date(2025, 1, 15, 3, 30, 0, 0, time.UTC)

func newTestAgent(t *testing.T, client llm.Client, logBuf *bytes.Buffer) (*Agent, *calendar.Store) {
	t.Helper()
	loc, err := time.LoadLocation(DefaultTimeZone)
	require.NoError(t, err)

	store, err := calendar.OpenStore(context.Background(), calendar.MemoryPath, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	now := func() time.Time { return fixedNow }
	registry := calendar_tools.NewRegistry(store, calendar_tools.Options{Location: loc, Now: now})

	logger := logging.Discard().Logger()
	if logBuf != nil {
		logger = slog.New(slog.NewTextHandler(logBuf, nil))
	}

	a, err := New(client, registry, Config{Location: loc, Now: now, Logger: logger})
	require.NoError(t, err)
	return a, store
}

func toolCall(name, id string, args map[string]any) conversation.AssistantMessage {
	return conversation.AssistantMessage{ToolCalls: []conversation.ToolCall{{Name: name, CallID: id, Arguments: args}}}
}

func TestRun_ListEventsScenario(t *testing.T) {
	client := &scriptedClient{
		replies:      []chatReply{{msg: toolCall("list_events_tool", "call_1", map[string]any{})}},
		completeText: "You have one event this week: Standup.",
	}
	a, store := newTestAgent(t, client, nil)

	_, err := store.CreateEvent(context.Background(), calendar.EventInput{
		Title: "Standup",
		Start: fixedNow.Add(24 * time.Hour),
		End:   fixedNow.Add(24*time.Hour + 15*time.Minute),
	})
	require.NoError(t, err)

	res, err := a.Run(context.Background(), "list my events this week")
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.Status)
	assert.Equal(t, 1, res.Rounds)
	assert.Equal(t, "You have one event this week: Standup.", res.Final)

	msgs := res.State.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, conversation.RoleUser, msgs[0].Role())
	assert.Equal(t, conversation.RoleAssistant, msgs[1].Role())

	toolMsg, ok := msgs[2].(conversation.ToolResultMessage)
	require.True(t, ok)
	assert.Equal(t, "call_1", toolMsg.CallID)
	assert.Equal(t, "list_events_tool", toolMsg.ToolName)

	var listing map[string]any
	require.NoError(t, json.Unmarshal([]byte(toolMsg.Content), &listing))
	assert.EqualValues(t, 1, listing["count"])

	require.Len(t, client.prompts, 1)
	assert.Equal(t, SynthesisPrompt([]conversation.ToolResultMessage{toolMsg}, "list my events this week"), client.prompts[0])
	assert.Contains(t, client.prompts[0], "And also consider the user's original message: list my events this week.")
}

func TestRun_PlainReply(t *testing.T) {
	client := &scriptedClient{replies: []chatReply{{msg: conversation.AssistantMessage{Content: "Hello! How can I help?"}}}}
	a, _ := newTestAgent(t, client, nil)

	res, err := a.Run(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.Status)
	assert.Equal(t, 0, res.Rounds)
	assert.Equal(t, 2, res.State.Len())
	assert.Equal(t, "Hello! How can I help?", res.Final)
	assert.Empty(t, client.prompts)
}

func TestRun_UnknownTool(t *testing.T) {
	var logs bytes.Buffer
	client := &scriptedClient{
		replies:      []chatReply{{msg: toolCall("book_flight_tool", "call_9", nil)}},
		completeText: "I cannot book flights.",
	}
	a, _ := newTestAgent(t, client, &logs)

	res, err := a.Run(context.Background(), "book me a flight")
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.Status)

	results := []conversation.ToolResultMessage{}
	for _, m := range res.State.Messages() {
		if tr, ok := m.(conversation.ToolResultMessage); ok {
			results = append(results, tr)
		}
	}
	require.Len(t, results, 1)
	assert.Equal(t, "call_9", results[0].CallID)
	assert.Equal(t, `Error: unknown tool "book_flight_tool"`, results[0].Content)

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "tool not found in registry")
}

func TestRun_ModelFailure(t *testing.T) {
	client := &scriptedClient{replies: []chatReply{{err: errors.New("connection refused")}}}
	a, _ := newTestAgent(t, client, nil)

	res, err := a.Run(context.Background(), "what's on tomorrow?")
	require.NoError(t, err)

	assert.Equal(t, StateDone, res.Status)
	assert.Equal(t, ApologyMessage, res.Final)
	assert.Equal(t, 2, res.State.Len())
}

func TestRun_SynthesisFailure(t *testing.T) {
	client := &scriptedClient{
		replies:     []chatReply{{msg: toolCall("list_events_tool", "call_1", nil)}},
		completeErr: errors.New("timeout"),
	}
	a, _ := newTestAgent(t, client, nil)

	res, err := a.Run(context.Background(), "list my events")
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, res.Final)
	assert.Equal(t, 4, res.State.Len())
}

func TestRun_TimePrefixOnOutgoingCopyOnly(t *testing.T) {
	client := &scriptedClient{replies: []chatReply{{msg: conversation.AssistantMessage{Content: "ok"}}}}
	a, _ := newTestAgent(t, client, nil)

	res, err := a.Run(context.Background(), "schedule lunch tomorrow")
	require.NoError(t, err)

	require.Len(t, client.requests, 1)
	sent := client.requests[0].Messages
	require.Len(t, sent, 1)
	assert.Equal(t,
		"The current date and time is 2025-01-15 09:00:00 IST. Please consider this information when generating your response.\n\nschedule lunch tomorrow",
		sent[0].Text())
	assert.Len(t, client.requests[0].Tools, 4)

	user, ok := res.State.LatestUser()
	require.True(t, ok)
	assert.Equal(t, "schedule lunch tomorrow", user.Content)
}

func TestRun_CreateThenSynthesize(t *testing.T) {
	client := &scriptedClient{
		replies: []chatReply{{msg: conversation.AssistantMessage{ToolCalls: []conversation.ToolCall{
			{Name: "create_event_tool", CallID: "c1", Arguments: map[string]any{
				"title": "Dentist", "start_time": "2025-01-16T15:00:00", "duration_minutes": 30,
			}},
			{Name: "create_event_tool", CallID: "c2", Arguments: map[string]any{"title": "Broken"}},
		}}}},
		completeText: "Booked the dentist.",
	}
	a, store := newTestAgent(t, client, nil)

	res, err := a.Run(context.Background(), "book a dentist appointment tomorrow at 3pm")
	require.NoError(t, err)

	msgs := res.State.Messages()
	require.Len(t, msgs, 5)
	first := msgs[2].(conversation.ToolResultMessage)
	second := msgs[3].(conversation.ToolResultMessage)
	assert.Equal(t, "c1", first.CallID)
	assert.Contains(t, first.Content, `"title":"Dentist"`)
	assert.Equal(t, "c2", second.CallID)
	assert.Equal(t, "Error: start_time is required", second.Content)

	events, err := store.ListEvents(context.Background(), calendar.ListQuery{
		TimeMin: fixedNow, TimeMax: fixedNow.Add(48 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dentist", events[0].Title)

	assert.True(t, strings.Contains(client.prompts[0], "Error: start_time is required"))
}

func TestRun_EmptyInput(t *testing.T) {
	a, _ := newTestAgent(t, &scriptedClient{}, nil)

	for _, input := range []string{"", "   ", "\n\t"} {
		res, err := a.Run(context.Background(), input)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
}

func TestRun_Cancelled(t *testing.T) {
	a, _ := newTestAgent(t, &scriptedClient{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := a.Run(ctx, "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, res.Status)
	assert.Equal(t, 1, res.State.Len())
}

func TestLoop_MaxRoundsExceeded(t *testing.T) {
	a, _ := newTestAgent(t, &scriptedClient{}, nil)

	res := &Result{
		State: conversation.NewState(
			conversation.UserMessage{Content: "loop"},
			toolCall("list_events_tool", "call_6", nil),
		),
		Status: StateDispatchTools,
		Rounds: a.MaxRounds(),
	}

	ctx := context.Background()
	_, span := startTestSpan(ctx)
	out, err := a.loop(ctx, span, logging.Discard().Logger(), res)
	assert.ErrorIs(t, err, ErrMaxRoundsExceeded)
	assert.Equal(t, StateFailed, out.Status)
	assert.Equal(t, DefaultMaxRounds, out.Rounds)
	assert.Equal(t, 2, out.State.Len())
}

type panickingRegistry struct {
	specs      []calendar_tools.Spec
	panicOnAll bool
}

func (p *panickingRegistry) Specs() []calendar_tools.Spec { return p.specs }

func (p *panickingRegistry) Lookup(name string) (calendar_tools.Name, bool) {
	if p.panicOnAll {
		panic("registry corrupted")
	}
	return calendar_tools.ParseName(name)
}

func (p *panickingRegistry) Call(context.Context, calendar_tools.Name, map[string]any) (common.Result, error) {
	panic("backend exploded")
}

func TestDispatch_ToolPanic(t *testing.T) {
	a, err := New(&scriptedClient{}, &panickingRegistry{}, Config{Logger: logging.Discard().Logger()})
	require.NoError(t, err)

	conv := conversation.NewState(
		conversation.UserMessage{Content: "delete it"},
		conversation.AssistantMessage{ToolCalls: []conversation.ToolCall{
			{Name: "delete_event_tool", CallID: "a"},
			{Name: "nope", CallID: "b"},
		}},
	)
	out := a.dispatchTools(context.Background(), logging.Discard().Logger(), conv)
	require.Len(t, out, 2)

	first := out[0].(conversation.ToolResultMessage)
	assert.Equal(t, "a", first.CallID)
	assert.Equal(t, "Error executing tool delete_event_tool: panic: backend exploded", first.Content)

	second := out[1].(conversation.ToolResultMessage)
	assert.Equal(t, "b", second.CallID)
	assert.Equal(t, `Error: unknown tool "nope"`, second.Content)
}

func TestDispatch_StepFailure(t *testing.T) {
	a, err := New(&scriptedClient{}, &panickingRegistry{panicOnAll: true}, Config{Logger: logging.Discard().Logger()})
	require.NoError(t, err)

	conv := conversation.NewState(
		conversation.UserMessage{Content: "x"},
		conversation.AssistantMessage{ToolCalls: []conversation.ToolCall{
			{Name: "list_events_tool", CallID: "a"},
			{Name: "list_events_tool", CallID: "b"},
		}},
	)
	out := a.dispatchTools(context.Background(), logging.Discard().Logger(), conv)
	require.Len(t, out, 1)

	result := out[0].(conversation.ToolResultMessage)
	assert.Empty(t, result.CallID)
	assert.Equal(t, DispatchToolName, result.ToolName)
	assert.Equal(t, DispatchFailureMessage, result.Content)

	raw, err := conversation.MarshalMessage(result)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"call_id":null`)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, &panickingRegistry{}, Config{})
	assert.Error(t, err)
	_, err = New(&scriptedClient{}, nil, Config{})
	assert.Error(t, err)

	a, err := New(&scriptedClient{}, &panickingRegistry{}, Config{MaxRounds: -1})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRounds, a.MaxRounds())
}
