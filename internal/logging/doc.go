// Package logging provides structured logging helpers built on log/slog.
//
// Attribute constructors keep key names consistent across the agent loop, the
// tool adapter, the calendar backends and the HTTP server:
//
//	logger := logging.WithOperation(slog.Default(), "agent.dispatch")
//	logger.Warn("unknown tool requested",
//	    logging.Tool(name),
//	    logging.CallID(callID))
//
// Setup configures the process-wide default logger from a level and a format
// (text or json). API keys and OAuth tokens are only ever logged through
// SanitizeToken.
package logging
