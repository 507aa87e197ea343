package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/flitsinc/agentboard/internal/board"
)

const documentColumns = `id, board_id, title, content, embedding::text, created_at, updated_at`

func scanDocument(row pgx.Row) (board.Document, error) {
	var d board.Document
	var embedding *string
	if err := row.Scan(&d.ID, &d.BoardID, &d.Title, &d.Content, &embedding, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return board.Document{}, err
	}
	vec, err := parseVector(embedding)
	if err != nil {
		return board.Document{}, err
	}
	d.Embedding = vec
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, nil
}

func (s *Store) CreateDocument(ctx context.Context, d board.Document) (board.Document, error) {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	err := s.pool.QueryRow(ctx, `INSERT INTO documents (board_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		d.BoardID, d.Title, d.Content, d.CreatedAt, d.UpdatedAt).Scan(&d.ID)
	if err != nil {
		return board.Document{}, fmt.Errorf("insert document: %w", err)
	}
	d.Embedding = nil
	return d, nil
}

func (s *Store) GetDocument(ctx context.Context, id int64) (board.Document, error) {
	d, err := scanDocument(s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return board.Document{}, board.NotFound("document")
	}
	if err != nil {
		return board.Document{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (s *Store) SaveDocument(ctx context.Context, d board.Document) (board.Document, error) {
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = s.now()
	}
	tag, err := s.pool.Exec(ctx, `UPDATE documents SET title = $1, content = $2, updated_at = $3 WHERE id = $4`,
		d.Title, d.Content, d.UpdatedAt, d.ID)
	if err != nil {
		return board.Document{}, fmt.Errorf("update document: %w", err)
	}
	if err := expectAffected(tag, "document"); err != nil {
		return board.Document{}, err
	}
	return d, nil
}

func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return expectAffected(tag, "document")
}

func (s *Store) ListDocuments(ctx context.Context, boardID string) ([]board.Document, error) {
	return s.queryDocuments(ctx, `SELECT `+documentColumns+` FROM documents WHERE board_id = $1 ORDER BY updated_at DESC, id DESC`, boardID)
}

func (s *Store) ListAllDocuments(ctx context.Context) ([]board.Document, error) {
	return s.queryDocuments(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY id ASC`)
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]board.Document, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := []board.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}
