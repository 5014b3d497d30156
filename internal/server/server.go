package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/teemow/calendaragent/internal/instrumentation"
)

const (
	// DefaultAddr is the default address of the API listener.
	DefaultAddr = ":8000"

	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 120 * time.Second
)

// Config configures the API server.
type Config struct {
	Addr string
	// RateLimit is the sustained /invoke rate in requests per second; 0 disables limiting.
	RateLimit float64
	RateBurst int
	// RequestTimeout bounds one agent run; 0 means no limit.
	RequestTimeout time.Duration
	Version        string

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	sc         *ServerContext
	health     *HealthChecker
	limiter    *rate.Limiter
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a server for sc.
func New(sc *ServerContext, config Config) *Server {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		sc:     sc,
		health: NewHealthChecker(sc, config.Version),
		logger: logger,
	}
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return s
}

// Health returns the health checker so callers can flip readiness.
func (s *Server) Health() *HealthChecker {
	return s.health
}

// Handler builds the complete HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	invoke := &invokeHandler{sc: s.sc, timeout: s.config.RequestTimeout, logger: s.logger}
	mux.Handle("POST /invoke", withRateLimit(s.limiter, s.config.Metrics, invoke))
	mux.HandleFunc("/invoke", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed, use POST")
	})

	s.health.RegisterHealthEndpoints(mux)

	var h http.Handler = mux
	h = withRecover(s.logger, h)
	h = withMetrics(s.config.Metrics, h)
	h = withRequestID(h)
	return h
}

// Start serves until Shutdown is called. It returns http.ErrServerClosed
// after a graceful shutdown.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	s.logger.Info("starting API server", "addr", s.config.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Addr
}
