package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/calendaragent/internal/conversation"
	"github.com/teemow/calendaragent/internal/logging"
	"github.com/teemow/calendaragent/internal/tools/calendar_tools"
	"github.com/teemow/calendaragent/internal/tools/common"
)

const (
	// DispatchToolName names the synthetic result of a failed dispatch step.
	DispatchToolName = "tool_dispatch_node"
	// DispatchFailureMessage is the content of that synthetic result.
	DispatchFailureMessage = "An error occurred while dispatching tools."
)

// dispatchTools answers every pending tool call with one result, in order.
// If the step itself fails, a single synthetic result with no call id is
// returned instead.
func (a *Agent) dispatchTools(ctx context.Context, logger *slog.Logger, conv *conversation.State) (out []conversation.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("error in tool dispatch", logging.Err(fmt.Errorf("panic: %v", r)))
			out = []conversation.Message{conversation.ToolResultMessage{
				ToolName: DispatchToolName,
				Content:  DispatchFailureMessage,
			}}
		}
	}()

	calls := conv.PendingToolCalls()
	out = make([]conversation.Message, 0, len(calls))
	for _, call := range calls {
		out = append(out, a.dispatchOne(ctx, logger, call))
	}
	logger.Info("tool dispatch finished", slog.Int("results", len(out)))
	return out
}

func (a *Agent) dispatchOne(ctx context.Context, logger *slog.Logger, call conversation.ToolCall) conversation.ToolResultMessage {
	logger = logger.With(logging.Tool(call.Name), logging.CallID(call.CallID))
	result := conversation.ToolResultMessage{CallID: call.CallID, ToolName: call.Name}

	name, ok := a.tools.Lookup(call.Name)
	if !ok {
		logger.Warn("tool not found in registry")
		result.Content = fmt.Sprintf("Error: unknown tool %q", call.Name)
		return result
	}

	logger.Info("invoking tool")
	res, err := a.callTool(common.ContextWithCallID(ctx, call.CallID), name, call.Arguments)
	if err != nil {
		logger.Error("error executing tool", logging.Err(err))
		result.Content = fmt.Sprintf("Error executing tool %s: %v", call.Name, err)
		return result
	}

	if res.IsError {
		logger.Warn("tool reported an error", slog.String("result", res.Text))
	} else {
		logger.Info("tool executed successfully")
	}
	result.Content = res.Text
	return result
}

// callTool runs one tool, converting a panic into an error.
func (a *Agent) callTool(ctx context.Context, name calendar_tools.Name, args map[string]any) (res common.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.tools.Call(ctx, name, args)
}
