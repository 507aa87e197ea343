package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flitsinc/agentboard/internal/board"
)

// ListDocumentsTool handles list_documents.
type ListDocumentsTool struct {
	svc *board.Service
}

func NewListDocumentsTool(svc *board.Service) *ListDocumentsTool {
	return &ListDocumentsTool{svc: svc}
}

func (t *ListDocumentsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_documents",
		mcp.WithDescription("List the knowledge-base documents of a board, most recently updated first."),
		mcp.WithString("board_id", mcp.Description("Board id; defaults to the main board")),
	)
}

func (t *ListDocumentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID, err := t.svc.ResolveBoardID(ctx, req.GetString("board_id", ""))
	if err != nil {
		return errorResult(err)
	}
	items, err := t.svc.ListDocuments(ctx, boardID)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(items)
}

// GetDocumentTool handles get_document.
type GetDocumentTool struct {
	svc *board.Service
}

func NewGetDocumentTool(svc *board.Service) *GetDocumentTool {
	return &GetDocumentTool{svc: svc}
}

func (t *GetDocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("get_document",
		mcp.WithDescription("Fetch one document with its full content."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Document id")),
	)
}

func (t *GetDocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := intArg(req, "id")
	if !ok {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	doc, err := t.svc.GetDocument(ctx, id)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(doc)
}

// CreateDocumentTool handles create_document.
type CreateDocumentTool struct {
	svc *board.Service
}

func NewCreateDocumentTool(svc *board.Service) *CreateDocumentTool {
	return &CreateDocumentTool{svc: svc}
}

func (t *CreateDocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("create_document",
		mcp.WithDescription("Add a document to a board's knowledge base."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Document title")),
		mcp.WithString("content", mcp.Description("Document body")),
		mcp.WithString("board_id", mcp.Description("Board id; defaults to the main board")),
	)
}

func (t *CreateDocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID, err := t.svc.ResolveBoardID(ctx, req.GetString("board_id", ""))
	if err != nil {
		return errorResult(err)
	}
	doc, err := t.svc.CreateDocument(ctx, boardID, board.NewDocument{
		Title:   req.GetString("title", ""),
		Content: req.GetString("content", ""),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(doc)
}

// UpdateDocumentTool handles update_document.
type UpdateDocumentTool struct {
	svc *board.Service
}

func NewUpdateDocumentTool(svc *board.Service) *UpdateDocumentTool {
	return &UpdateDocumentTool{svc: svc}
}

func (t *UpdateDocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("update_document",
		mcp.WithDescription("Update a document's title or content. Omitted fields keep their value."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New content")),
	)
}

func (t *UpdateDocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := intArg(req, "id")
	if !ok {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	doc, err := t.svc.UpdateDocument(ctx, id, board.DocumentPatch{
		Title:   req.GetString("title", ""),
		Content: req.GetString("content", ""),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(doc)
}

// SearchDocumentsTool handles search_documents.
type SearchDocumentsTool struct {
	svc *board.Service
}

func NewSearchDocumentsTool(svc *board.Service) *SearchDocumentsTool {
	return &SearchDocumentsTool{svc: svc}
}

func (t *SearchDocumentsTool) Definition() mcp.Tool {
	return mcp.NewTool("search_documents",
		mcp.WithDescription("Semantic search over documents. Returns the closest matches first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural language query")),
		mcp.WithString("board_id", mcp.Description("Restrict to one board")),
	)
}

func (t *SearchDocumentsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := t.svc.SearchDocuments(ctx, req.GetString("query", ""), req.GetString("board_id", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(items)
}
