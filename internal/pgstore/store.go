// Package pgstore is the Postgres implementation of board.Repository.
// Embeddings live in pgvector columns and nearest-neighbour ranking runs in
// the database with the cosine distance operator.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flitsinc/agentboard/internal/board"
)

type Store struct {
	pool  *pgxpool.Pool
	dims  int
	nowFn func() time.Time
}

var _ board.Repository = (*Store)(nil)

// Open connects to url and ensures the schema, with vector columns of the
// given dimension.
func Open(ctx context.Context, url string, dims int) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := New(pool, dims)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func New(pool *pgxpool.Pool, dims int) *Store {
	return &Store{pool: pool, dims: dims, nowFn: time.Now}
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) now() time.Time { return s.nowFn().UTC() }

// EnsureSchema creates missing tables and fails when an existing embedding
// column was created with a different width.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.dims) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	for _, table := range []string{"tasks", "documents"} {
		var got string
		err := s.pool.QueryRow(ctx, columnTypeQuery, table).Scan(&got)
		if err != nil {
			return fmt.Errorf("inspect %s.embedding: %w", table, err)
		}
		if err := checkColumnWidth(table, got, s.dims); err != nil {
			return err
		}
	}
	return nil
}

func expectAffected(tag pgconn.CommandTag, target string) error {
	if tag.RowsAffected() == 0 {
		return board.NotFound(target)
	}
	return nil
}

func (s *Store) CreateBoard(ctx context.Context, b board.Board, ownerID string) (board.Board, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return board.Board{}, fmt.Errorf("begin create board: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `INSERT INTO boards (id, title, description, created_at) VALUES ($1, $2, $3, $4)`,
		b.ID, b.Title, b.Description, b.CreatedAt); err != nil {
		return board.Board{}, fmt.Errorf("insert board: %w", err)
	}
	if ownerID != "" {
		if _, err := tx.Exec(ctx, `INSERT INTO board_members (board_id, member_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
			b.ID, ownerID, board.OwnerRole, b.CreatedAt); err != nil {
			return board.Board{}, fmt.Errorf("insert board owner: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return board.Board{}, fmt.Errorf("commit create board: %w", err)
	}
	return b, nil
}

func (s *Store) GetBoard(ctx context.Context, id string) (board.Board, error) {
	var b board.Board
	err := s.pool.QueryRow(ctx, `SELECT id, title, description, created_at FROM boards WHERE id = $1`, id).
		Scan(&b.ID, &b.Title, &b.Description, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return board.Board{}, board.NotFound("board")
	}
	if err != nil {
		return board.Board{}, fmt.Errorf("get board: %w", err)
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return b, nil
}

func (s *Store) ListBoards(ctx context.Context) ([]board.Board, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title, description, created_at FROM boards ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	out := []board.Board{}
	for rows.Next() {
		var b board.Board
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		b.CreatedAt = b.CreatedAt.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boards: %w", err)
	}
	return out, nil
}

func (s *Store) DefaultBoardID(ctx context.Context) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `SELECT id FROM boards ORDER BY created_at ASC, id ASC LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("default board: %w", err)
	}
	return id, nil
}

func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return expectAffected(tag, "board")
}

func (s *Store) ListMembers(ctx context.Context) ([]board.Member, error) {
	return s.queryMembers(ctx, `SELECT id, name, role, avatar FROM members ORDER BY id ASC`)
}

func (s *Store) GetMember(ctx context.Context, id string) (board.Member, error) {
	var m board.Member
	err := s.pool.QueryRow(ctx, `SELECT id, name, role, avatar FROM members WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.Role, &m.Avatar)
	if errors.Is(err, pgx.ErrNoRows) {
		return board.Member{}, board.NotFound("member")
	}
	if err != nil {
		return board.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *Store) UpsertMember(ctx context.Context, m board.Member) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO members (id, name, role, avatar) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, avatar = EXCLUDED.avatar`,
		m.ID, m.Name, m.Role, m.Avatar)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

func (s *Store) ListBoardMembers(ctx context.Context, boardID string) ([]board.Member, error) {
	return s.queryMembers(ctx, `SELECT m.id, m.name, m.role, m.avatar
		FROM members m JOIN board_members bm ON bm.member_id = m.id
		WHERE bm.board_id = $1
		ORDER BY bm.joined_at ASC, m.id ASC`, boardID)
}

func (s *Store) AddBoardMember(ctx context.Context, boardID, memberID, role string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO board_members (board_id, member_id, role, joined_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (board_id, member_id) DO UPDATE SET role = EXCLUDED.role`,
		boardID, memberID, role, s.now())
	if err != nil {
		return fmt.Errorf("add board member: %w", err)
	}
	return nil
}

func (s *Store) RemoveBoardMember(ctx context.Context, boardID, memberID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM board_members WHERE board_id = $1 AND member_id = $2`, boardID, memberID)
	if err != nil {
		return fmt.Errorf("remove board member: %w", err)
	}
	return expectAffected(tag, "board member")
}

func (s *Store) queryMembers(ctx context.Context, query string, args ...any) ([]board.Member, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	out := []board.Member{}
	for rows.Next() {
		var m board.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Role, &m.Avatar); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return out, nil
}
