package common

import (
	"context"
	"fmt"
	"time"

	"github.com/teemow/calendaragent/internal/instrumentation"
	"github.com/teemow/calendaragent/internal/logging"
)

// Instrumentation bundles the recorders used by InstrumentedTool.
// Both fields may be nil.
type Instrumentation struct {
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
}

// InstrumentedTool wraps a tool with a tracing span, invocation metrics and
// an audit record. Results with IsError set count as failures.
//
// Usage:
//
//	fn = common.InstrumentedTool("list_events_tool", inst, fn)
func InstrumentedTool(toolName string, inst Instrumentation, fn ToolFunc) ToolFunc {
	return func(ctx context.Context, args map[string]any) (Result, error) {
		callID := CallIDFromContext(ctx)
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, callID)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithCall(callID, logging.RequestIDFromContext(ctx)).
			WithArguments(args).
			WithSpanContext(ctx)

		result, err := fn(ctx, args)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result.IsError:
			status = instrumentation.StatusError
			resultErr := fmt.Errorf("%s", result.Text)
			invocation.CompleteWithError(resultErr)
			instrumentation.SetSpanError(span, resultErr)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		inst.Metrics.RecordToolInvocation(ctx, toolName, status, duration)
		inst.Audit.LogToolInvocation(invocation)

		return result, err
	}
}
