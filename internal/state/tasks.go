package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/flitsinc/agentboard/internal/board"
)

const taskColumns = `id, board_id, title, description, list_id, position, assignee_id, embedding`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (board.Task, error) {
	var t board.Task
	var assignee, embedding sql.NullString
	if err := row.Scan(&t.ID, &t.BoardID, &t.Title, &t.Description, &t.ListID, &t.Position, &assignee, &embedding); err != nil {
		return board.Task{}, err
	}
	t.AssigneeID = stringPtr(assignee)
	t.Embedding = decodeVector(embedding)
	return t, nil
}

func (s *Store) CreateTask(ctx context.Context, t board.Task) (board.Task, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks (board_id, title, description, list_id, position, assignee_id) VALUES (?, ?, ?, ?, ?, ?)`,
		t.BoardID, t.Title, t.Description, t.ListID, t.Position, nullString(t.AssigneeID))
	if err != nil {
		return board.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return board.Task{}, fmt.Errorf("task id: %w", err)
	}
	t.ID = id
	t.Embedding = nil
	return t, nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (board.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return board.Task{}, board.NotFound("task")
	}
	if err != nil {
		return board.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// SaveTask overwrites the mutable columns of an existing task. The stored
// embedding is left alone; the indexer replaces it.
func (s *Store) SaveTask(ctx context.Context, t board.Task) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET board_id = ?, title = ?, description = ?, list_id = ?, position = ?, assignee_id = ? WHERE id = ?`,
		t.BoardID, t.Title, t.Description, t.ListID, t.Position, nullString(t.AssigneeID), t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectAffected(res, "task")
}

func (s *Store) ListTasks(ctx context.Context, boardID string, filter board.TaskFilter) ([]board.Task, error) {
	where := []string{"board_id = ?"}
	args := []any{boardID}
	if filter.ListID != "" {
		where = append(where, "list_id = ?")
		args = append(args, filter.ListID)
	}
	if filter.AssigneeID != "" {
		where = append(where, "assignee_id = ?")
		args = append(args, filter.AssigneeID)
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") + ` ORDER BY position ASC, id ASC`
	return s.queryTasks(ctx, query, args...)
}

func (s *Store) ListAllTasks(ctx context.Context) ([]board.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id ASC`)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]board.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := []board.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

func (s *Store) AppendActivity(ctx context.Context, a board.Activity) (board.Activity, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO activities (task_id, user_id, action, details, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.TaskID, a.UserID, string(a.Action), a.Details, formatTime(a.CreatedAt))
	if err != nil {
		return board.Activity{}, fmt.Errorf("insert activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return board.Activity{}, fmt.Errorf("activity id: %w", err)
	}
	a.ID = id
	return a, nil
}

func (s *Store) ListActivities(ctx context.Context, taskID int64) ([]board.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task_id, user_id, action, details, created_at FROM activities
		WHERE task_id = ? ORDER BY created_at DESC, id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	out := []board.Activity{}
	for rows.Next() {
		var a board.Activity
		var action, createdAt string
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UserID, &action, &a.Details, &createdAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Action = board.Action(action)
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return out, nil
}
