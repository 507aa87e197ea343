package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flitsinc/agentboard/internal/board"
)

// ListTasksTool handles list_tasks.
type ListTasksTool struct {
	svc *board.Service
}

func NewListTasksTool(svc *board.Service) *ListTasksTool {
	return &ListTasksTool{svc: svc}
}

func (t *ListTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription("List the tasks of a board ordered by position. Optionally filter by list (status column) and assignee."),
		mcp.WithString("board_id", mcp.Description("Board id; defaults to the main board")),
		mcp.WithString("list_id", mcp.Description("Only tasks in this list, e.g. todo, doing, done")),
		mcp.WithString("assignee_id", mcp.Description("Only tasks assigned to this member")),
	)
}

func (t *ListTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID, err := t.svc.ResolveBoardID(ctx, req.GetString("board_id", ""))
	if err != nil {
		return errorResult(err)
	}
	items, err := t.svc.ListTasks(ctx, boardID, board.TaskFilter{
		ListID:     req.GetString("list_id", ""),
		AssigneeID: req.GetString("assignee_id", ""),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(items)
}

// CreateTaskTool handles create_task.
type CreateTaskTool struct {
	svc *board.Service
}

func NewCreateTaskTool(svc *board.Service) *CreateTaskTool {
	return &CreateTaskTool{svc: svc}
}

func (t *CreateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("create_task",
		mcp.WithDescription("Create a task. It lands in the todo list unless list_id says otherwise."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("description", mcp.Description("Task description")),
		mcp.WithString("board_id", mcp.Description("Board id; defaults to the main board")),
		mcp.WithString("list_id", mcp.Description("List to create the task in (default todo)")),
		mcp.WithString("assignee_id", mcp.Description("Member to assign")),
		mcp.WithNumber("position", mcp.Description("Order within the list")),
	)
}

func (t *CreateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := board.NewTask{
		BoardID:     req.GetString("board_id", ""),
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		ListID:      req.GetString("list_id", ""),
	}
	if pos, ok := intArg(req, "position"); ok {
		in.Position = int(pos)
	}
	if a := req.GetString("assignee_id", ""); a != "" {
		in.AssigneeID = &a
	}
	task, err := t.svc.CreateTask(ctx, in)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(task)
}

// UpdateTaskTool handles update_task.
type UpdateTaskTool struct {
	svc *board.Service
}

func NewUpdateTaskTool(svc *board.Service) *UpdateTaskTool {
	return &UpdateTaskTool{svc: svc}
}

func (t *UpdateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("update_task",
		mcp.WithDescription("Partially update a task. Omitted fields keep their value. Moving lists, assigning and editing the description are recorded in the task's activity log."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Task id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("list_id", mcp.Description("Move to this list")),
		mcp.WithNumber("position", mcp.Description("New position; 0 is a valid position")),
		mcp.WithString("assignee_id", mcp.Description("Assign to this member; an empty string clears the assignee")),
		mcp.WithString("updated_by", mcp.Description("Member id recorded as the actor")),
	)
}

func (t *UpdateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := intArg(req, "id")
	if !ok {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	patch := board.TaskPatch{
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		UpdatedBy:   req.GetString("updated_by", ""),
	}
	if hasArg(req, "list_id") {
		l := req.GetString("list_id", "")
		patch.ListID = &l
	}
	if pos, ok := intArg(req, "position"); ok {
		p := int(pos)
		patch.Position = &p
	}
	if hasArg(req, "assignee_id") {
		if a := req.GetString("assignee_id", ""); a != "" {
			patch.AssigneeID = board.Some(a)
		} else {
			patch.AssigneeID = board.Null[string]()
		}
	}
	task, err := t.svc.UpdateTask(ctx, id, patch)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(task)
}
