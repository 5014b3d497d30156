// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the calendar agent.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - http_requests_rate_limited_total: Counter of requests rejected by admission control
//
// Model Metrics:
//   - model_invocations_total: Counter of language model calls by model and status
//   - model_invocation_duration_seconds: Histogram of model call durations
//
// Tool Metrics:
//   - tool_invocations_total: Counter of calendar tool invocations by tool and status
//   - tool_duration_seconds: Histogram of tool execution durations
//
// Calendar Metrics:
//   - calendar_operations_total: Counter of backend operations by backend, operation, status
//   - calendar_operation_duration_seconds: Histogram of backend operation durations
//
// Agent Metrics:
//   - agent_runs_total: Counter of conversation runs by outcome
//   - agent_run_rounds: Histogram of tool dispatch rounds per run
//   - agent_runs_active: Gauge of runs in progress
//
// # Tracing
//
// Spans are created for each conversation run (agent.run), each model call
// (llm.chat), each tool invocation (tool.<name>) and each calendar backend
// operation (calendar.<backend>.<operation>).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: calendaragent)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocation(ctx, "list_events_tool", "success", time.Since(start))
package instrumentation
