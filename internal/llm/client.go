package llm

import (
	"context"
	"errors"

	"github.com/teemow/calendaragent/internal/conversation"
)

// ErrEmptyResponse is returned when the model answers without any choice.
var ErrEmptyResponse = errors.New("empty response from model")

// ToolSpec advertises one callable tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object describing the arguments.
	Parameters map[string]any
}

// Request is one chat turn. Tools may be empty, in which case the model
// cannot request tool calls.
type Request struct {
	Messages []conversation.Message
	Tools    []ToolSpec
}

// Client produces the next assistant message for a transcript.
type Client interface {
	// Chat sends the transcript and returns the assistant reply, which may
	// carry tool calls when Tools were offered.
	Chat(ctx context.Context, req Request) (conversation.AssistantMessage, error)
	// Complete sends a single prompt without tools and returns the reply text.
	Complete(ctx context.Context, prompt string) (string, error)
}
