package conversation

import (
	"encoding/json"
	"fmt"
)

// State is the append-only transcript of one conversation.
// A zero State is ready to use. State is not safe for concurrent use; each
// request owns its own instance.
type State struct {
	messages []Message
}

// NewState returns a state seeded with the given messages.
func NewState(msgs ...Message) *State {
	s := &State{}
	s.Append(msgs...)
	return s
}

// Append adds messages to the end of the transcript.
func (s *State) Append(msgs ...Message) {
	for _, m := range msgs {
		if m == nil {
			continue
		}
		s.messages = append(s.messages, m)
	}
}

// Messages returns a copy of the transcript in order.
func (s *State) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages.
func (s *State) Len() int {
	return len(s.messages)
}

// Last returns the most recent message, or nil for an empty state.
func (s *State) Last() Message {
	if len(s.messages) == 0 {
		return nil
	}
	return s.messages[len(s.messages)-1]
}

// LatestUser returns the most recent user message.
func (s *State) LatestUser() (UserMessage, bool) {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if m, ok := s.messages[i].(UserMessage); ok {
			return m, true
		}
	}
	return UserMessage{}, false
}

// TrailingToolResults returns the contiguous run of tool results at the end
// of the transcript, oldest first.
func (s *State) TrailingToolResults() []ToolResultMessage {
	i := len(s.messages)
	for i > 0 {
		if _, ok := s.messages[i-1].(ToolResultMessage); !ok {
			break
		}
		i--
	}
	out := make([]ToolResultMessage, 0, len(s.messages)-i)
	for _, m := range s.messages[i:] {
		out = append(out, m.(ToolResultMessage))
	}
	return out
}

// PendingToolCalls returns the tool calls of the last message when it is an
// assistant message, and nil otherwise.
func (s *State) PendingToolCalls() []ToolCall {
	if m, ok := s.Last().(AssistantMessage); ok {
		return m.ToolCalls
	}
	return nil
}

// MarshalJSON encodes the state as {"messages":[...]}.
func (s *State) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(s.messages))
	for i, m := range s.messages {
		b, err := MarshalMessage(m)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		raw = append(raw, b)
	}
	return json.Marshal(struct {
		Messages []json.RawMessage `json:"messages"`
	}{raw})
}

// UnmarshalJSON decodes a state produced by MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	var w struct {
		Messages []json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode state: %w", err)
	}
	s.messages = nil
	for i, raw := range w.Messages {
		m, err := UnmarshalMessage(raw)
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		s.messages = append(s.messages, m)
	}
	return nil
}
