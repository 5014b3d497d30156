package calendar

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/calendaragent/internal/instrumentation"
)

// InstrumentedBackend records a span and metrics for every call to the
// wrapped Backend.
type InstrumentedBackend struct {
	next    Backend
	metrics *instrumentation.Metrics
}

// NewInstrumentedBackend wraps next. A nil metrics recorder disables metrics
// but spans are still created.
func NewInstrumentedBackend(next Backend, metrics *instrumentation.Metrics) *InstrumentedBackend {
	return &InstrumentedBackend{next: next, metrics: metrics}
}

// Name implements Backend.
func (b *InstrumentedBackend) Name() string {
	return b.next.Name()
}

// Unwrap returns the wrapped backend.
func (b *InstrumentedBackend) Unwrap() Backend {
	return b.next
}

func (b *InstrumentedBackend) observe(ctx context.Context, operation, eventID string, fn func(context.Context) error) {
	var attrs []attribute.KeyValue
	if eventID != "" {
		attrs = append(attrs, attribute.String(instrumentation.SpanAttrEventID, eventID))
	}
	ctx, span := instrumentation.StartCalendarSpan(ctx, b.next.Name(), operation, attrs...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	b.metrics.RecordCalendarOperation(ctx, b.next.Name(), operation, status, time.Since(start))
}

// CreateEvent implements Backend.
func (b *InstrumentedBackend) CreateEvent(ctx context.Context, input EventInput) (ev *Event, err error) {
	b.observe(ctx, instrumentation.OperationCreate, "", func(ctx context.Context) error {
		ev, err = b.next.CreateEvent(ctx, input)
		return err
	})
	return ev, err
}

// ListEvents implements Backend.
func (b *InstrumentedBackend) ListEvents(ctx context.Context, query ListQuery) (events []Event, err error) {
	b.observe(ctx, instrumentation.OperationList, "", func(ctx context.Context) error {
		events, err = b.next.ListEvents(ctx, query)
		return err
	})
	return events, err
}

// GetEvent implements Backend.
func (b *InstrumentedBackend) GetEvent(ctx context.Context, eventID string) (ev *Event, err error) {
	b.observe(ctx, instrumentation.OperationGet, eventID, func(ctx context.Context) error {
		ev, err = b.next.GetEvent(ctx, eventID)
		return err
	})
	return ev, err
}

// MoveEvent implements Backend.
func (b *InstrumentedBackend) MoveEvent(ctx context.Context, eventID string, newStart time.Time) (ev *Event, err error) {
	b.observe(ctx, instrumentation.OperationMove, eventID, func(ctx context.Context) error {
		ev, err = b.next.MoveEvent(ctx, eventID, newStart)
		return err
	})
	return ev, err
}

// DeleteEvent implements Backend.
func (b *InstrumentedBackend) DeleteEvent(ctx context.Context, eventID string) error {
	var err error
	b.observe(ctx, instrumentation.OperationDelete, eventID, func(ctx context.Context) error {
		err = b.next.DeleteEvent(ctx, eventID)
		return err
	})
	return err
}
