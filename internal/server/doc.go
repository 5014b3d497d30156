// Package server exposes the calendar agent over HTTP.
//
// The main listener serves:
//   - POST /invoke     run one conversation for {"user_input": "..."}
//   - GET  /health     fixed liveness payload {"status":"API is running"}
//   - /healthz, /readyz, /healthz/detailed  Kubernetes style probes
//
// Every response carries an X-Request-ID header. /invoke is optionally
// guarded by a token bucket rate limiter and a per-request timeout.
//
// Prometheus metrics are served by MetricsServer on a dedicated port so that
// operational data stays off the application listener.
package server
