package state

import (
	"context"
	"fmt"
	"sort"

	"github.com/flitsinc/agentboard/internal/board"
	"github.com/flitsinc/agentboard/internal/embedding"
)

// SQLite has no vector type: embeddings are JSON arrays in TEXT columns and
// ranking happens in process.

// indexExpr rebuilds IndexText in SQL so a vector is only stored against the
// text it was computed from.
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

func (s *Store) setEmbedding(ctx context.Context, table, target string, id int64, text string, vec []float32) error {
	encoded, err := encodeVector(vec)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET embedding = ? WHERE id = ? AND `+indexExpr[table]+` = ?`, encoded, id, text)
	if err != nil {
		return fmt.Errorf("set %s embedding: %w", target, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check %s: %w", target, err)
	}
	if exists == 0 {
		return board.NotFound(target)
	}
	return embedding.ErrStale
}

// NearestTasks ranks tasks with a stored embedding of the same length as
// query by cosine distance. An empty boardID searches every board.
func (s *Store) NearestTasks(ctx context.Context, query []float32, boardID string, limit int) ([]board.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE embedding IS NOT NULL`
	var args []any
	if boardID != "" {
		q += ` AND board_id = ?`
		args = append(args, boardID)
	}
	rows, err := s.queryTasks(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return nearest(rows, query, limit, func(t board.Task) ([]float32, int64) { return t.Embedding, t.ID }), nil
}

func (s *Store) NearestDocuments(ctx context.Context, query []float32, boardID string, limit int) ([]board.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE embedding IS NOT NULL`
	var args []any
	if boardID != "" {
		q += ` AND board_id = ?`
		args = append(args, boardID)
	}
	rows, err := s.queryDocuments(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return nearest(rows, query, limit, func(d board.Document) ([]float32, int64) { return d.Embedding, d.ID }), nil
}

func nearest[T any](items []T, query []float32, limit int, key func(T) ([]float32, int64)) []T {
	type scored struct {
		item T
		id   int64
		dist float64
	}
	ranked := make([]scored, 0, len(items))
	for _, it := range items {
		vec, id := key(it)
		if len(vec) != len(query) {
			continue
		}
		ranked = append(ranked, scored{item: it, id: id, dist: embedding.CosineDistance(query, vec)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].dist != ranked[j].dist {
			return ranked[i].dist < ranked[j].dist
		}
		return ranked[i].id < ranked[j].id
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]T, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.item)
	}
	return out
}
