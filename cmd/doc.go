// Package cmd implements the command-line interface for calendaragent.
//
// This package provides the following commands:
//   - serve: Start the HTTP API (/invoke, /health) and the metrics server
//   - ask: Run one request through the agent and print the reply
//   - mcp: Serve the calendar tools over MCP on stdio
//   - auth: Bootstrap the Google Calendar OAuth token
//   - generate-docs: Generate markdown documentation for the calendar tools
//   - version: Display version information
package cmd
