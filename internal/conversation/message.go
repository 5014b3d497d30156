package conversation

import (
	"encoding/json"
	"fmt"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the conversation transcript.
// The set of implementations is closed to this package.
type Message interface {
	Role() Role
	Text() string
	isMessage()
}

// ToolCall is a request from the model to invoke a named tool.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	CallID    string         `json:"call_id"`
}

// UserMessage is free text typed by the end user.
type UserMessage struct {
	Content string
}

// AssistantMessage is a model reply. It may carry tool calls.
type AssistantMessage struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolResultMessage is the outcome of one tool call. An empty CallID marks a
// dispatcher-level result that does not belong to a specific call.
type ToolResultMessage struct {
	CallID   string
	ToolName string
	Content  string
}

func (UserMessage) Role() Role { return RoleUser }
func (m UserMessage) Text() string { return m.Content }
func (UserMessage) isMessage() {}
func (AssistantMessage) Role() Role { return RoleAssistant }
func (m AssistantMessage) Text() string { return m.Content }
func (AssistantMessage) isMessage() {}
func (ToolResultMessage) Role() Role { return RoleTool }
func (m ToolResultMessage) Text() string { return m.Content }
func (ToolResultMessage) isMessage() {}

// HasToolCalls reports whether the model asked for at least one tool.
func (m AssistantMessage) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// WithContent returns a copy of m whose text is replaced by content.
// Tool calls and result metadata are preserved.
func WithContent(m Message, content string) Message {
	switch v := m.(type) {
	case UserMessage:
		v.Content = content
		return v
	case AssistantMessage:
		v.Content = content
		v.ToolCalls = append([]ToolCall(nil), v.ToolCalls...)
		return v
	case ToolResultMessage:
		v.Content = content
		return v
	default:
		return m
	}
}

type wireMessage struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"`
	CallID    *string    `json:"call_id,omitempty"`
}

func toWire(m Message) (wireMessage, error) {
	switch v := m.(type) {
	case UserMessage:
		return wireMessage{Role: RoleUser, Content: v.Content}, nil
	case AssistantMessage:
		return wireMessage{Role: RoleAssistant, Content: v.Content, ToolCalls: v.ToolCalls}, nil
	case ToolResultMessage:
		w := wireMessage{Role: RoleTool, Content: v.Content, ToolName: v.ToolName}
		if v.CallID != "" {
			id := v.CallID
			w.CallID = &id
		}
		return w, nil
	default:
		return wireMessage{}, fmt.Errorf("unsupported message type %T", m)
	}
}

// MarshalMessage encodes a single message in its wire form. Tool results
// always carry a call_id key, which is null for dispatcher-level results.
func MarshalMessage(m Message) ([]byte, error) {
	w, err := toWire(m)
	if err != nil {
		return nil, err
	}
	if w.Role == RoleTool && w.CallID == nil {
		return json.Marshal(struct {
			Role     Role    `json:"role"`
			Content  string  `json:"content"`
			ToolName string  `json:"tool_name,omitempty"`
			CallID   *string `json:"call_id"`
		}{w.Role, w.Content, w.ToolName, nil})
	}
	return json.Marshal(w)
}

// UnmarshalMessage decodes a message previously produced by MarshalMessage.
func UnmarshalMessage(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}
	switch w.Role {
	case RoleUser:
		return UserMessage{Content: w.Content}, nil
	case RoleAssistant:
		return AssistantMessage{Content: w.Content, ToolCalls: w.ToolCalls}, nil
	case RoleTool:
		m := ToolResultMessage{Content: w.Content, ToolName: w.ToolName}
		if w.CallID != nil {
			m.CallID = *w.CallID
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown message role %q", w.Role)
	}
}
