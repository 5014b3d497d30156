package agent

import (
	"context"
	"log/slog"

	"github.com/teemow/calendaragent/internal/conversation"
	"github.com/teemow/calendaragent/internal/llm"
	"github.com/teemow/calendaragent/internal/logging"
)

// invokeModel produces exactly one assistant message for the transcript.
// Failures are logged and replaced by ApologyMessage.
func (a *Agent) invokeModel(ctx context.Context, logger *slog.Logger, conv *conversation.State) conversation.AssistantMessage {
	logger = logging.WithOperation(logger, "call_model")
	logger.Info("invoking model", slog.Int("messages", conv.Len()))

	if results := conv.TrailingToolResults(); len(results) > 0 {
		user, _ := conv.LatestUser()
		logger.Info("latest messages are tool results, requesting final response",
			slog.Int("tool_results", len(results)))

		text, err := a.client.Complete(ctx, SynthesisPrompt(results, user.Content))
		if err != nil {
			logger.Error("model invocation failed", logging.Err(err))
			return conversation.AssistantMessage{Content: ApologyMessage}
		}
		return conversation.AssistantMessage{Content: text}
	}

	// The prefix goes on the outgoing copy only.
	messages := conv.Messages()
	if n := len(messages); n > 0 {
		last := messages[n-1]
		messages[n-1] = conversation.WithContent(last, TimePrefix(a.now().In(a.loc))+last.Text())
	}

	msg, err := a.client.Chat(ctx, llm.Request{Messages: messages, Tools: a.toolSpecs})
	if err != nil {
		logger.Error("model invocation failed", logging.Err(err))
		return conversation.AssistantMessage{Content: ApologyMessage}
	}
	if msg.HasToolCalls() {
		logger.Info("model requested tools", slog.Int("tool_calls", len(msg.ToolCalls)))
	}
	return msg
}
