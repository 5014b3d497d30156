package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teemow/calendaragent/internal/agent"
	"github.com/teemow/calendaragent/internal/conversation"
	"github.com/teemow/calendaragent/internal/logging"
)

// maxInvokeBodyBytes bounds the /invoke request body.
const maxInvokeBodyBytes = 1 << 20

// InvokeRequest is the /invoke request body.
type InvokeRequest struct {
	UserInput string `json:"user_input"`
}

// InvokeResult is the "result" member of a successful /invoke response.
type InvokeResult struct {
	Messages []json.RawMessage `json:"messages"`
	Final    string            `json:"final"`
	Rounds   int               `json:"rounds"`
}

type invokeResponse struct {
	Status string       `json:"status"`
	Result InvokeResult `json:"result"`
}

type invokeHandler struct {
	sc      *ServerContext
	timeout time.Duration
	logger  *slog.Logger
}

func (h *invokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), h.logger).With(logging.Operation("invoke"))

	if h.sc.IsShutdown() {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}

	var req InvokeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInvokeBodyBytes))
	if err := dec.Decode(&req); err != nil {
		logger.Warn("invalid invoke request", logging.Err(err))
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		writeError(w, http.StatusBadRequest, "user_input is required")
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	logger.Info("invoking agent", slog.Int("input_length", len(req.UserInput)))
	res, err := h.sc.Runner().Run(ctx, req.UserInput)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, agent.ErrEmptyInput) {
			status = http.StatusBadRequest
		}
		logger.Error("agent run failed", logging.Err(err))
		writeError(w, status, err.Error())
		return
	}

	result, err := newInvokeResult(res)
	if err != nil {
		logger.Error("failed to encode conversation", logging.Err(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, invokeResponse{Status: "success", Result: result})
}

func newInvokeResult(res *agent.Result) (InvokeResult, error) {
	msgs := res.State.Messages()
	out := InvokeResult{
		Messages: make([]json.RawMessage, 0, len(msgs)),
		Final:    res.Final,
		Rounds:   res.Rounds,
	}
	for _, m := range msgs {
		raw, err := conversation.MarshalMessage(m)
		if err != nil {
			return InvokeResult{}, fmt.Errorf("failed to encode message: %w", err)
		}
		out.Messages = append(out.Messages, raw)
	}
	return out, nil
}
