package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrBackend   = "backend"
	attrModel     = "model"
	attrTool      = "tool"
	attrOutcome   = "outcome"
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	httpRateLimited     metric.Int64Counter

	// Model metrics
	modelInvocationsTotal   metric.Int64Counter
	modelInvocationDuration metric.Float64Histogram

	// Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Calendar backend metrics
	calendarOperationsTotal   metric.Int64Counter
	calendarOperationDuration metric.Float64Histogram

	// Agent metrics
	agentRunsTotal  metric.Int64Counter
	agentRunRounds  metric.Int64Histogram
	agentRunsActive metric.Int64UpDownCounter
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.httpRateLimited, err = meter.Int64Counter(
		"http_requests_rate_limited_total",
		metric.WithDescription("Total number of HTTP requests rejected by admission control"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_rate_limited_total counter: %w", err)
	}

	m.modelInvocationsTotal, err = meter.Int64Counter(
		"model_invocations_total",
		metric.WithDescription("Total number of language model invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_invocations_total counter: %w", err)
	}

	m.modelInvocationDuration, err = meter.Float64Histogram(
		"model_invocation_duration_seconds",
		metric.WithDescription("Language model invocation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_invocation_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"tool_invocations_total",
		metric.WithDescription("Total number of calendar tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"tool_duration_seconds",
		metric.WithDescription("Calendar tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_duration_seconds histogram: %w", err)
	}

	m.calendarOperationsTotal, err = meter.Int64Counter(
		"calendar_operations_total",
		metric.WithDescription("Total number of calendar backend operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_operations_total counter: %w", err)
	}

	m.calendarOperationDuration, err = meter.Float64Histogram(
		"calendar_operation_duration_seconds",
		metric.WithDescription("Calendar backend operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_operation_duration_seconds histogram: %w", err)
	}

	m.agentRunsTotal, err = meter.Int64Counter(
		"agent_runs_total",
		metric.WithDescription("Total number of conversation runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_runs_total counter: %w", err)
	}

	m.agentRunRounds, err = meter.Int64Histogram(
		"agent_run_rounds",
		metric.WithDescription("Number of tool dispatch rounds per conversation run"),
		metric.WithUnit("{round}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 4, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_run_rounds histogram: %w", err)
	}

	m.agentRunsActive, err = meter.Int64UpDownCounter(
		"agent_runs_active",
		metric.WithDescription("Number of conversation runs in progress"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent_runs_active gauge: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)

	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRateLimited counts a request rejected by admission control.
func (m *Metrics) RecordRateLimited(ctx context.Context, path string) {
	if m == nil || m.httpRateLimited == nil {
		return
	}
	m.httpRateLimited.Add(ctx, 1, metric.WithAttributes(attribute.String(attrPath, path)))
}

// RecordModelInvocation records one call to the language model.
//
// Parameters:
//   - model: Model identifier sent to the endpoint
//   - status: Result status ("success" or "error")
//   - duration: Round-trip time of the call
func (m *Metrics) RecordModelInvocation(ctx context.Context, model, status string, duration time.Duration) {
	if m == nil || m.modelInvocationsTotal == nil || m.modelInvocationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrModel, model),
		attribute.String(attrStatus, status),
	)

	m.modelInvocationsTotal.Add(ctx, 1, attrs)
	m.modelInvocationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records a tool invocation with tool name, status, and duration.
// Callers pass a normalized tool name; see NormalizeLabel.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)

	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCalendarOperation records a calendar backend operation.
//
// Parameters:
//   - backend: Backend name (google, sqlite)
//   - operation: Operation type (list, get, create, move, delete)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordCalendarOperation(ctx context.Context, backend, operation, status string, duration time.Duration) {
	if m == nil || m.calendarOperationsTotal == nil || m.calendarOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrBackend, backend),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)

	m.calendarOperationsTotal.Add(ctx, 1, attrs)
	m.calendarOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAgentRun records the outcome of a conversation run and the number
// of dispatch rounds it used.
func (m *Metrics) RecordAgentRun(ctx context.Context, outcome string, rounds int) {
	if m == nil || m.agentRunsTotal == nil || m.agentRunRounds == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	m.agentRunsTotal.Add(ctx, 1, attrs)
	m.agentRunRounds.Record(ctx, int64(rounds), attrs)
}

// IncrementActiveRuns increments the in-progress runs gauge.
func (m *Metrics) IncrementActiveRuns(ctx context.Context) {
	if m == nil || m.agentRunsActive == nil {
		return
	}
	m.agentRunsActive.Add(ctx, 1)
}

// DecrementActiveRuns decrements the in-progress runs gauge.
func (m *Metrics) DecrementActiveRuns(ctx context.Context) {
	if m == nil || m.agentRunsActive == nil {
		return
	}
	m.agentRunsActive.Add(ctx, -1)
}
