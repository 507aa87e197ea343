package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flitsinc/agentboard/internal/board"
)

const documentColumns = `id, board_id, title, content, embedding, created_at, updated_at`

func scanDocument(row rowScanner) (board.Document, error) {
	var d board.Document
	var embedding sql.NullString
	var createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.BoardID, &d.Title, &d.Content, &embedding, &createdAt, &updatedAt); err != nil {
		return board.Document{}, err
	}
	d.Embedding = decodeVector(embedding)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return d, nil
}

func (s *Store) CreateDocument(ctx context.Context, d board.Document) (board.Document, error) {
	now := s.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO documents (board_id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		d.BoardID, d.Title, d.Content, formatTime(d.CreatedAt), formatTime(d.UpdatedAt))
	if err != nil {
		return board.Document{}, fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return board.Document{}, fmt.Errorf("document id: %w", err)
	}
	d.ID = id
	d.Embedding = nil
	return d, nil
}

func (s *Store) GetDocument(ctx context.Context, id int64) (board.Document, error) {
	d, err := scanDocument(s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
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
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET title = ?, content = ?, updated_at = ? WHERE id = ?`,
		d.Title, d.Content, formatTime(d.UpdatedAt), d.ID)
	if err != nil {
		return board.Document{}, fmt.Errorf("update document: %w", err)
	}
	if err := expectAffected(res, "document"); err != nil {
		return board.Document{}, err
	}
	return d, nil
}

func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return expectAffected(res, "document")
}

func (s *Store) ListDocuments(ctx context.Context, boardID string) ([]board.Document, error) {
	return s.queryDocuments(ctx, `SELECT `+documentColumns+` FROM documents WHERE board_id = ? ORDER BY updated_at DESC, id DESC`, boardID)
}

func (s *Store) ListAllDocuments(ctx context.Context) ([]board.Document, error) {
	return s.queryDocuments(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY id ASC`)
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]board.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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
