package common

import (
	"context"
	"encoding/json"
	"fmt"
)

// Result is the text outcome of a tool call. IsError marks a failure that
// was reported to the caller as text rather than returned as an error.
type Result struct {
	Text    string
	IsError bool
}

// ToolFunc executes a tool with decoded JSON arguments. A returned error
// means the tool could not produce a Result at all.
type ToolFunc func(ctx context.Context, args map[string]any) (Result, error)

// TextResult returns a successful result.
func TextResult(text string) Result {
	return Result{Text: text}
}

// JSONResult marshals v into a successful result.
func JSONResult(v any) (Result, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode result: %w", err)
	}
	return Result{Text: string(data)}, nil
}

// ErrorResult reports err as an "Error: ..." result.
func ErrorResult(err error) Result {
	return Result{Text: "Error: " + err.Error(), IsError: true}
}

// ErrorResultf formats an "Error: ..." result.
func ErrorResultf(format string, args ...any) Result {
	return ErrorResult(fmt.Errorf(format, args...))
}

type callIDKey struct{}

// ContextWithCallID returns a copy of ctx carrying the model's tool call id.
func ContextWithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, callIDKey{}, callID)
}

// CallIDFromContext returns the tool call id stored in ctx, if any.
func CallIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)
	return id
}
