package pgstore

import (
	"context"
	"fmt"

	"github.com/flitsinc/agentboard/internal/board"
	"github.com/flitsinc/agentboard/internal/embedding"
)

var indexExpr = map[string]string{
	"tasks":     `title || ' ' || description`,
	"documents": `title || ' ' || content`,
}

func (s *Store) SetTaskEmbedding(ctx context.Context, id int64, text string, vec []float32) error {
	return s.setEmbedding(ctx, "tasks", "task", id, text, vec)
}

func (s *Store) SetDocumentEmbedding(ctx context.Context, id int64, text string, vec []float32) error {
	return s.setEmbedding(ctx, "documents", "document", id, text, vec)
}

// setEmbedding writes vec only while the row still holds text. The vector
// must match the column width.
func (s *Store) setEmbedding(ctx context.Context, table, target string, id int64, text string, vec []float32) error {
	if len(vec) != s.dims {
		return fmt.Errorf("set %s embedding: got %d dimensions, column is vector(%d)", target, len(vec), s.dims)
	}
	lit, err := vectorLiteral(vec)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+table+` SET embedding = $1::vector WHERE id = $2 AND `+indexExpr[table]+` = $3`, lit, id, text)
	if err != nil {
		return fmt.Errorf("set %s embedding: %w", target, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check %s: %w", target, err)
	}
	if !exists {
		return board.NotFound(target)
	}
	return embedding.ErrStale
}

// NearestTasks orders tasks by cosine distance (<=>) to query. An empty
// boardID searches every board.
func (s *Store) NearestTasks(ctx context.Context, query []float32, boardID string, limit int) ([]board.Task, error) {
	if err := s.checkQuery(query); err != nil {
		return nil, err
	}
	q, args, err := nearestQuery(`SELECT `+taskColumns+` FROM tasks`, query, boardID, limit)
	if err != nil {
		return nil, err
	}
	return s.queryTasks(ctx, q, args...)
}

func (s *Store) NearestDocuments(ctx context.Context, query []float32, boardID string, limit int) ([]board.Document, error) {
	if err := s.checkQuery(query); err != nil {
		return nil, err
	}
	q, args, err := nearestQuery(`SELECT `+documentColumns+` FROM documents`, query, boardID, limit)
	if err != nil {
		return nil, err
	}
	return s.queryDocuments(ctx, q, args...)
}

func (s *Store) checkQuery(query []float32) error {
	if len(query) != s.dims {
		return fmt.Errorf("query vector has %d dimensions, column is vector(%d)", len(query), s.dims)
	}
	return nil
}

func nearestQuery(base string, query []float32, boardID string, limit int) (string, []any, error) {
	lit, err := vectorLiteral(query)
	if err != nil {
		return "", nil, fmt.Errorf("encode query vector: %w", err)
	}
	args := []any{lit, limit}
	where := ` WHERE embedding IS NOT NULL`
	if boardID != "" {
		args = append(args, boardID)
		where += ` AND board_id = $3`
	}
	return base + where + ` ORDER BY embedding <=> $1::vector, id ASC LIMIT $2`, args, nil
}
