package mcptools

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flitsinc/agentboard/internal/board"
)

const ServerName = "agentboard"

// Tool is one MCP tool bound to the board service.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// NewServer registers every board tool on a new MCP server.
func NewServer(svc *board.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions("Task board tools. Tasks live in lists (todo, doing, done) on boards; documents form each board's knowledge base."),
	)
	for _, t := range Tools(svc) {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}

// Tools returns the board tools in registration order.
func Tools(svc *board.Service) []Tool {
	return []Tool{
		NewListTasksTool(svc),
		NewCreateTaskTool(svc),
		NewUpdateTaskTool(svc),
		NewListDocumentsTool(svc),
		NewGetDocumentTool(svc),
		NewCreateDocumentTool(svc),
		NewUpdateDocumentTool(svc),
		NewSearchDocumentsTool(svc),
	}
}

// NewHTTPHandler serves s over streamable HTTP behind a static bearer token.
func NewHTTPHandler(s *server.MCPServer, token string) http.Handler {
	return BearerAuth(token, server.NewStreamableHTTPServer(s))
}

// BearerAuth rejects requests whose Authorization header is not exactly
// "Bearer <token>". An empty token rejects everything.
func BearerAuth(token string, next http.Handler) http.Handler {
	want := []byte("Bearer " + token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		if token == "" || subtle.ConstantTimeCompare(got, want) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="agentboard"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
