package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/teemow/calendaragent/internal/conversation"
	"github.com/teemow/calendaragent/internal/instrumentation"
	"github.com/teemow/calendaragent/internal/logging"
)

const (
	// DefaultBaseURL is the Together AI OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.together.xyz/v1"
	// DefaultModel is the model used when none is configured.
	DefaultModel = "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free"
	// DefaultTimeout bounds a single model request.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxRetries is the SDK retry count for transient failures.
	DefaultMaxRetries = 2
)

// Config configures an OpenAIClient.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
	Timeout      time.Duration
	MaxRetries   int

	// HTTPClient overrides the SDK's HTTP client.
	HTTPClient *http.Client
	Metrics    *instrumentation.Metrics
	Logger     *slog.Logger
}

// OpenAIClient implements Client with the OpenAI chat completions API.
type OpenAIClient struct {
	client       openai.Client
	model        string
	systemPrompt string
	metrics      *instrumentation.Metrics
	logger       *slog.Logger
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client for cfg. An API key is required.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("model API key is required (set TOGETHER_API_KEY or OPENAI_API_KEY)")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(cfg.MaxRetries),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	logger.Debug("model client configured",
		"base_url", cfg.BaseURL,
		"model", cfg.Model,
		"api_key", logging.SanitizeToken(cfg.APIKey))

	return &OpenAIClient{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		metrics:      cfg.Metrics,
		logger:       logger,
	}, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string {
	return c.model
}

// Chat implements Client.
func (c *OpenAIClient) Chat(ctx context.Context, req Request) (conversation.AssistantMessage, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: c.toParams(req.Messages),
	}
	if len(req.Tools) > 0 {
		params.Tools = toToolParams(req.Tools)
	}

	msg, err := c.complete(ctx, params)
	if err != nil {
		return conversation.AssistantMessage{}, err
	}
	return c.fromResponse(msg), nil
}

// Complete implements Client.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: c.toParams([]conversation.Message{conversation.UserMessage{Content: prompt}}),
	}
	msg, err := c.complete(ctx, params)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

func (c *OpenAIClient) complete(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletionMessage, error) {
	withTools := len(params.Tools) > 0
	ctx, span := instrumentation.StartModelSpan(ctx, c.model, withTools)
	defer span.End()

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	if err == nil && len(resp.Choices) == 0 {
		err = ErrEmptyResponse
	}
	if err != nil {
		c.metrics.RecordModelInvocation(ctx, c.model, instrumentation.StatusError, duration)
		instrumentation.SetSpanError(span, err)
		return openai.ChatCompletionMessage{}, fmt.Errorf("chat completion failed: %w", err)
	}

	c.metrics.RecordModelInvocation(ctx, c.model, instrumentation.StatusSuccess, duration)
	instrumentation.SetSpanSuccess(span)
	c.logger.Debug("model responded",
		"model", c.model,
		"with_tools", withTools,
		"tool_calls", len(resp.Choices[0].Message.ToolCalls),
		slog.Duration(logging.KeyDuration, duration))
	return resp.Choices[0].Message, nil
}

func (c *OpenAIClient) toParams(messages []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if c.systemPrompt != "" {
		out = append(out, openai.SystemMessage(c.systemPrompt))
	}
	for _, m := range messages {
		switch m := m.(type) {
		case conversation.UserMessage:
			out = append(out, openai.UserMessage(m.Content))
		case conversation.AssistantMessage:
			out = append(out, assistantParam(m))
		case conversation.ToolResultMessage:
			out = append(out, openai.ToolMessage(m.Content, m.CallID))
		}
	}
	return out
}

func assistantParam(m conversation.AssistantMessage) openai.ChatCompletionMessageParamUnion {
	if !m.HasToolCalls() {
		return openai.AssistantMessage(m.Content)
	}

	param := openai.ChatCompletionAssistantMessageParam{}
	if m.Content != "" {
		param.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(m.Content),
		}
	}
	for _, call := range m.ToolCalls {
		args, err := json.Marshal(call.Arguments)
		if err != nil || call.Arguments == nil {
			args = []byte("{}")
		}
		param.ToolCalls = append(param.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.CallID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: string(args),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &param}
}

func toToolParams(specs []ToolSpec) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        spec.Name,
			Description: openai.String(spec.Description),
			Parameters:  openai.FunctionParameters(spec.Parameters),
		}))
	}
	return out
}

// fromResponse converts the SDK message. Tool calls without an id get a
// generated one; arguments that are not a JSON object decode to an empty map.
func (c *OpenAIClient) fromResponse(msg openai.ChatCompletionMessage) conversation.AssistantMessage {
	out := conversation.AssistantMessage{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		callID := tc.ID
		if callID == "" {
			callID = "call_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(tc.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				c.logger.Warn("model sent malformed tool arguments",
					logging.Tool(tc.Function.Name),
					logging.CallID(callID),
					logging.Err(err))
				args = map[string]any{}
			}
		}
		if args == nil {
			args = map[string]any{}
		}

		out.ToolCalls = append(out.ToolCalls, conversation.ToolCall{
			Name:      tc.Function.Name,
			Arguments: args,
			CallID:    callID,
		})
	}
	return out
}
