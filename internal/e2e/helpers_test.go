package e2e

import "github.com/mark3labs/mcp-go/mcp"

func mcpRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}
