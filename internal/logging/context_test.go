package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if id := RequestIDFromContext(ctx); id != "" {
		t.Errorf("expected empty id, got %q", id)
	}

	ctx = ContextWithRequestID(ctx, "req-42")
	if id := RequestIDFromContext(ctx); id != "req-42" {
		t.Errorf("RequestIDFromContext() = %q, want %q", id, "req-42")
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	FromContext(ContextWithRequestID(context.Background(), "req-7"), base).Info("hello")
	if !strings.Contains(buf.String(), "request_id=req-7") {
		t.Errorf("expected request id in output, got %q", buf.String())
	}

	if FromContext(context.Background(), nil) == nil {
		t.Error("FromContext should fall back to the default logger")
	}
}
