package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/calendaragent/internal/conversation"
	"github.com/teemow/calendaragent/internal/instrumentation"
	"github.com/teemow/calendaragent/internal/llm"
	"github.com/teemow/calendaragent/internal/logging"
	"github.com/teemow/calendaragent/internal/tools/calendar_tools"
	"github.com/teemow/calendaragent/internal/tools/common"
)

// DefaultMaxRounds caps the tool dispatch rounds of one run.
const DefaultMaxRounds = 5

var (
	// ErrEmptyInput is returned for an empty or whitespace-only utterance.
	ErrEmptyInput = errors.New("user input is empty")
	// ErrMaxRoundsExceeded is returned when a run needs more dispatch rounds than allowed.
	ErrMaxRoundsExceeded = errors.New("maximum tool rounds exceeded")
)

// ToolRegistry is the closed set of tools the agent can dispatch to.
type ToolRegistry interface {
	Specs() []calendar_tools.Spec
	Lookup(name string) (calendar_tools.Name, bool)
	Call(ctx context.Context, name calendar_tools.Name, args map[string]any) (common.Result, error)
}

// Config configures an Agent.
type Config struct {
	// MaxRounds defaults to DefaultMaxRounds.
	MaxRounds int
	// Location is the zone of the time prefix. Defaults to Asia/Kolkata.
	Location *time.Location
	// Now overrides the clock.
	Now     func() time.Time
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Agent runs conversations against a model and a tool registry.
// It holds no per-request state and is safe for concurrent use.
type Agent struct {
	client    llm.Client
	tools     ToolRegistry
	toolSpecs []llm.ToolSpec
	maxRounds int
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
}

// Result is the outcome of a run.
type Result struct {
	State  *conversation.State
	Final  string
	Rounds int
	Status State
}

// New creates an Agent.
func New(client llm.Client, tools ToolRegistry, cfg Config) (*Agent, error) {
	if client == nil {
		return nil, fmt.Errorf("model client is required")
	}
	if tools == nil {
		return nil, fmt.Errorf("tool registry is required")
	}

	a := &Agent{
		client:    client,
		tools:     tools,
		maxRounds: cfg.MaxRounds,
		loc:       cfg.Location,
		now:       cfg.Now,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
	if a.maxRounds <= 0 {
		a.maxRounds = DefaultMaxRounds
	}
	if a.loc == nil {
		loc, err := time.LoadLocation(DefaultTimeZone)
		if err != nil {
			return nil, fmt.Errorf("failed to load time zone %s: %w", DefaultTimeZone, err)
		}
		a.loc = loc
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}

	for _, spec := range tools.Specs() {
		a.toolSpecs = append(a.toolSpecs, llm.ToolSpec{
			Name:        spec.Name.String(),
			Description: spec.Description,
			Parameters:  spec.Parameters,
		})
	}
	return a, nil
}

// MaxRounds returns the configured round cap.
func (a *Agent) MaxRounds() int {
	return a.maxRounds
}

// Run executes one conversation for userInput. On ErrMaxRoundsExceeded or
// context cancellation the partial Result is returned with the error.
func (a *Agent) Run(ctx context.Context, userInput string) (*Result, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, ErrEmptyInput
	}

	requestID := logging.RequestIDFromContext(ctx)
	logger := logging.WithRequestID(a.logger, requestID)

	ctx, span := instrumentation.StartAgentSpan(ctx, requestID)
	defer span.End()

	a.metrics.IncrementActiveRuns(ctx)
	defer a.metrics.DecrementActiveRuns(ctx)

	res := &Result{
		State:  conversation.NewState(conversation.UserMessage{Content: userInput}),
		Status: StateAwaitModel,
	}

	return a.loop(ctx, span, logger, res)
}

// loop advances res until it reaches DONE or fails.
func (a *Agent) loop(ctx context.Context, span trace.Span, logger *slog.Logger, res *Result) (*Result, error) {
	for res.Status != StateDone {
		if err := ctx.Err(); err != nil {
			return a.finish(ctx, span, logger, res, StateFailed, fmt.Errorf("run cancelled: %w", err))
		}

		switch res.Status {
		case StateAwaitModel:
			res.State.Append(a.invokeModel(ctx, logger, res.State))
		case StateDispatchTools:
			if res.Rounds >= a.maxRounds {
				return a.finish(ctx, span, logger, res, StateFailed,
					fmt.Errorf("%w: limit is %d", ErrMaxRoundsExceeded, a.maxRounds))
			}
			res.Rounds++
			dispatchLogger := logging.WithOperation(logger, "dispatch").With(logging.Round(res.Rounds))
			res.State.Append(a.dispatchTools(ctx, dispatchLogger, res.State)...)
		}

		res.Status = Next(res.Status, res.State)
	}

	if last, ok := res.State.Last().(conversation.AssistantMessage); ok {
		res.Final = last.Content
	}
	return a.finish(ctx, span, logger, res, StateDone, nil)
}

func (a *Agent) finish(ctx context.Context, span trace.Span, logger *slog.Logger, res *Result, status State, err error) (*Result, error) {
	res.Status = status
	span.SetAttributes(
		attribute.String(instrumentation.SpanAttrState, status.String()),
		attribute.Int(instrumentation.SpanAttrRound, res.Rounds),
	)

	outcome := instrumentation.RunCompleted
	switch {
	case err == nil:
		instrumentation.SetSpanSuccess(span)
		logger.Info("conversation finished",
			logging.Round(res.Rounds),
			slog.Int("messages", res.State.Len()))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = instrumentation.RunCancelled
		instrumentation.SetSpanError(span, err)
		logger.Warn("conversation cancelled", logging.Err(err))
	default:
		outcome = instrumentation.RunFailed
		instrumentation.SetSpanError(span, err)
		logger.Error("conversation failed", logging.Round(res.Rounds), logging.Err(err))
	}
	a.metrics.RecordAgentRun(ctx, outcome, res.Rounds)
	return res, err
}
