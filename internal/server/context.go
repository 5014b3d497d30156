package server

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/teemow/calendaragent/internal/agent"
	"github.com/teemow/calendaragent/internal/calendar"
)

// Runner executes one conversation. *agent.Agent implements it.
type Runner interface {
	Run(ctx context.Context, userInput string) (*agent.Result, error)
}

// ServerContext holds the long-lived dependencies shared by all requests.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	runner   Runner
	backend  calendar.Backend
	model    string
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context. backend may be nil when the
// caller owns its lifecycle.
func NewServerContext(ctx context.Context, runner Runner, backend calendar.Backend, model string) (*ServerContext, error) {
	if runner == nil {
		return nil, fmt.Errorf("agent runner is required")
	}
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		runner:  runner,
		backend: backend,
		model:   model,
	}, nil
}

// Context is cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Runner returns the conversation runner.
func (sc *ServerContext) Runner() Runner {
	return sc.runner
}

// BackendName names the calendar backend, or "" when none is attached.
func (sc *ServerContext) BackendName() string {
	if sc.backend == nil {
		return ""
	}
	return sc.backend.Name()
}

// Model returns the configured model name.
func (sc *ServerContext) Model() string {
	return sc.model
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the context and closes the backend if it holds resources.
// It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()

	if closer, ok := sc.backend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to close calendar backend: %w", err)
		}
	}
	return nil
}
