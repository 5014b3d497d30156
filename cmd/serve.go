package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/calendaragent/internal/config"
	"github.com/teemow/calendaragent/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		httpAddr       string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API of the calendar agent.

Endpoints:
  POST /invoke   {"user_input": "..."} runs one conversation and returns the
                 full transcript
  GET  /health   always {"status": "API is running"}
  /healthz, /readyz, /healthz/detailed   Kubernetes probes

Metrics are served in Prometheus format on a dedicated listener
(--metrics-addr, default :9090) unless disabled.

Configuration is read from --config (TOML) and environment variables.
The model API key comes from TOGETHER_API_KEY or OPENAI_API_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			override := func(cfg *config.Config) {
				if cmd.Flags().Changed("http-addr") {
					cfg.Server.Addr = httpAddr
				}
				if cmd.Flags().Changed("metrics-enabled") {
					cfg.Metrics.Enabled = metricsEnabled
				}
				if cmd.Flags().Changed("metrics-addr") {
					cfg.Metrics.Addr = metricsAddr
				}
			}
			return runServe(override)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultAddr, "HTTP API address. Can also use HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(override func(*config.Config)) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(shutdownCtx, runtimeOptions{telemetry: true, override: override})
	if err != nil {
		return err
	}
	logger := rt.logger
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			logger.Error("error during runtime shutdown", "error", err)
		}
	}()

	a, client, err := rt.newAgent()
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(shutdownCtx, a, rt.backend, client.Model())
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("error during server context shutdown", "error", err)
		}
	}()

	// Start metrics server if enabled and the provider exports to Prometheus
	var metricsServer *server.MetricsServer
	if rt.cfg.Metrics.Enabled && rt.provider.ServesPrometheus() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    rt.cfg.Metrics.Addr,
			InstrumentationProvider: rt.provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	} else if rt.cfg.Metrics.Enabled {
		logger.Info("metrics server disabled: instrumentation does not export Prometheus metrics")
	}

	apiServer := server.New(serverContext, server.Config{
		Addr:           rt.cfg.Server.Addr,
		RateLimit:      rt.cfg.Server.RateLimit,
		RateBurst:      rt.cfg.Server.RateBurst,
		RequestTimeout: rt.cfg.Server.RequestTimeout,
		Version:        version,
		Metrics:        rt.provider.Metrics(),
		Logger:         logger,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	}

	timeout := rt.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = server.DefaultShutdownTimeout
	}
	ctx, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()

	var errs []error
	if err := apiServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("API server shutdown: %w", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
