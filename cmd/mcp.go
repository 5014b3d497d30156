package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calendaragent/internal/tools/calendar_tools"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the calendar tools over MCP on stdio",
		Long: `Start a Model Context Protocol (MCP) server on standard input/output.

The server exposes the same four calendar tools the agent uses
(create_event_tool, list_events_tool, postpone_event_tool and
delete_event_tool) against the configured calendar backend, so that any
MCP client can drive the calendar directly. No model is involved.

Logs are written to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP()
		},
	}
}

func runMCP() error {
	ctx := context.Background()
	rt, err := newRuntime(ctx, runtimeOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = rt.Close(ctx)
	}()

	mcpSrv := mcpserver.NewMCPServer("calendaragent", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := calendar_tools.RegisterMCPTools(mcpSrv, rt.registry); err != nil {
		return fmt.Errorf("failed to register calendar tools: %w", err)
	}
	return runStdioServer(mcpSrv)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
