package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hairizuan-noorazman/helpdesk-pilot/capability"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

// MCPBridge serves the capability registry over MCP stdio, so an external
// assistant can act as the execution agent.
type MCPBridge struct {
	tools     Toolset
	logger    logger.Logger
	mcpServer *server.MCPServer
}

// NewMCPBridge registers every operation of tools on a new MCP server.
func NewMCPBridge(name, version string, tools Toolset, log logger.Logger) *MCPBridge {
	b := &MCPBridge{
		tools:  tools,
		logger: log.WithField("component", "mcp_bridge"),
		mcpServer: server.NewMCPServer(
			name,
			version,
			server.WithToolCapabilities(false),
		),
	}
	for _, op := range tools.Operations() {
		b.mcpServer.AddTool(op.Tool, b.handle(op.Name()))
	}
	return b
}

// Serve blocks serving MCP over stdin/stdout.
func (b *MCPBridge) Serve(ctx context.Context) error {
	b.logger.Info(ctx, "serving capabilities over mcp stdio", map[string]interface{}{
		"tools": len(b.tools.Operations()),
	})
	return server.ServeStdio(b.mcpServer)
}

func (b *MCPBridge) handle(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := b.tools.Invoke(ctx, name, capability.Args(request.GetArguments()))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if s, ok := out.(string); ok {
			return mcp.NewToolResultText(s), nil
		}
		data, err := json.Marshal(out)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
