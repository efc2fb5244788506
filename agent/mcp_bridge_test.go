package agent

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
)

func callBridge(t *testing.T, b *MCPBridge, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := b.handle(name)(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestMCPBridge_Handle(t *testing.T) {
	b := NewMCPBridge("pilot", "test", newRegistry(t), logger.NewTestLogger())

	res := callBridge(t, b, "getRequester", map[string]interface{}{"id": float64(7)})
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"requester": {"id": 7}}`, text(t, res))

	res = callBridge(t, b, "generateOrCreateOrNewOrRandomEmail", nil)
	assert.Equal(t, "testuser@yopmail.com", text(t, res))

	res = callBridge(t, b, "getRequester", map[string]interface{}{})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "missing required parameter")
}
