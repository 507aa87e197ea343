package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/flitsinc/agentboard/internal/board"
)

const taskColumns = `id, board_id, title, description, list_id, position, assignee_id, embedding::text`

func scanTask(row pgx.Row) (board.Task, error) {
	var t board.Task
	var embedding *string
	if err := row.Scan(&t.ID, &t.BoardID, &t.Title, &t.Description, &t.ListID, &t.Position, &t.AssigneeID, &embedding); err != nil {
		return board.Task{}, err
	}
	vec, err := parseVector(embedding)
	if err != nil {
		return board.Task{}, err
	}
	t.Embedding = vec
	return t, nil
}

func (s *Store) CreateTask(ctx context.Context, t board.Task) (board.Task, error) {
	err := s.pool.QueryRow(ctx, `INSERT INTO tasks (board_id, title, description, list_id, position, assignee_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		t.BoardID, t.Title, t.Description, t.ListID, t.Position, t.AssigneeID).Scan(&t.ID)
	if err != nil {
		return board.Task{}, fmt.Errorf("insert task: %w", err)
	}
	t.Embedding = nil
	return t, nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (board.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return board.Task{}, board.NotFound("task")
	}
	if err != nil {
		return board.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// SaveTask overwrites the mutable columns; the embedding is the indexer's.
func (s *Store) SaveTask(ctx context.Context, t board.Task) error {
	tag, err := s.pool.Exec(ctx, `UPDATE tasks SET board_id = $1, title = $2, description = $3, list_id = $4, position = $5, assignee_id = $6 WHERE id = $7`,
		t.BoardID, t.Title, t.Description, t.ListID, t.Position, t.AssigneeID, t.ID)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectAffected(tag, "task")
}

func (s *Store) ListTasks(ctx context.Context, boardID string, filter board.TaskFilter) ([]board.Task, error) {
	where := []string{"board_id = $1"}
	args := []any{boardID}
	if filter.ListID != "" {
		args = append(args, filter.ListID)
		where = append(where, "list_id = $"+strconv.Itoa(len(args)))
	}
	if filter.AssigneeID != "" {
		args = append(args, filter.AssigneeID)
		where = append(where, "assignee_id = $"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") + ` ORDER BY position ASC, id ASC`
	return s.queryTasks(ctx, query, args...)
}

func (s *Store) ListAllTasks(ctx context.Context) ([]board.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id ASC`)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]board.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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
	err := s.pool.QueryRow(ctx, `INSERT INTO activities (task_id, user_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.TaskID, a.UserID, string(a.Action), a.Details, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return board.Activity{}, fmt.Errorf("insert activity: %w", err)
	}
	return a, nil
}

func (s *Store) ListActivities(ctx context.Context, taskID int64) ([]board.Activity, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, task_id, user_id, action, details, created_at FROM activities
		WHERE task_id = $1 ORDER BY created_at DESC, id DESC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	out := []board.Activity{}
	for rows.Next() {
		var a board.Activity
		var action string
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UserID, &action, &a.Details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Action = board.Action(action)
		a.CreatedAt = a.CreatedAt.UTC()
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return out, nil
}
