package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers every tool in r with the MCP server.
func RegisterMCPTools(s *mcpserver.MCPServer, r *Registry) error {
	for _, spec := range r.Specs() {
		schema, err := json.Marshal(spec.Parameters)
		if err != nil {
			return fmt.Errorf("failed to encode schema for %s: %w", spec.Name, err)
		}

		name := spec.Name
		tool := mcp.NewToolWithRawSchema(string(name), spec.Description, schema)
		s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleMCPCall(ctx, r, name, request)
		})
	}
	return nil
}

func handleMCPCall(ctx context.Context, r *Registry, name Name, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := r.Call(ctx, name, request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error executing tool %s: %v", name, err)), nil
	}
	if res.IsError {
		return mcp.NewToolResultError(res.Text), nil
	}
	return mcp.NewToolResultText(res.Text), nil
}
