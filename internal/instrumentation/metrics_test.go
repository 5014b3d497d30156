package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m
}

func TestNewMetrics(t *testing.T) {
	m := newTestMetrics(t)
	if m.toolInvocationsTotal == nil || m.modelInvocationsTotal == nil || m.agentRunsTotal == nil {
		t.Error("expected instruments to be initialized")
	}
}

func TestMetrics_Record(t *testing.T) {
	ctx := context.Background()
	m := newTestMetrics(t)

	// Should not panic
	m.RecordHTTPRequest(ctx, "POST", "/invoke", 200, 100*time.Millisecond)
	m.RecordRateLimited(ctx, "/invoke")
	m.RecordModelInvocation(ctx, "test-model", StatusSuccess, time.Second)
	m.RecordToolInvocation(ctx, "create_event_tool", StatusError, 10*time.Millisecond)
	m.RecordCalendarOperation(ctx, BackendSQLite, OperationCreate, StatusSuccess, time.Millisecond)
	m.RecordAgentRun(ctx, RunCompleted, 2)
	m.IncrementActiveRuns(ctx)
	m.DecrementActiveRuns(ctx)
}

func TestMetrics_RecordWithProvider(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	m := provider.Metrics()
	m.RecordHTTPRequest(ctx, "GET", "/health", 200, time.Millisecond)
	m.RecordAgentRun(ctx, RunFailed, 6)
}

func TestMetrics_ZeroValueIsSafe(t *testing.T) {
	ctx := context.Background()

	var zero Metrics
	zero.RecordHTTPRequest(ctx, "GET", "/health", 200, time.Millisecond)
	zero.RecordModelInvocation(ctx, "m", StatusError, time.Millisecond)
	zero.RecordToolInvocation(ctx, "t", StatusSuccess, time.Millisecond)
	zero.RecordCalendarOperation(ctx, BackendGoogle, OperationList, StatusSuccess, time.Millisecond)
	zero.RecordAgentRun(ctx, RunCancelled, 0)
	zero.IncrementActiveRuns(ctx)

	var nilMetrics *Metrics
	nilMetrics.RecordRateLimited(ctx, "/invoke")
	nilMetrics.DecrementActiveRuns(ctx)
}
