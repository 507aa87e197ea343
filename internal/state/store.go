package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flitsinc/agentboard/internal/board"
)

// Store is the SQLite implementation of board.Repository.
type Store struct {
	db    *sql.DB
	nowFn func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, nowFn: time.Now}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) now() time.Time { return s.nowFn().UTC() }

func (s *Store) CreateBoard(ctx context.Context, b board.Board, ownerID string) (board.Board, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return board.Board{}, fmt.Errorf("begin create board: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO boards (id, title, description, created_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.Title, b.Description, formatTime(b.CreatedAt)); err != nil {
		return board.Board{}, fmt.Errorf("insert board: %w", err)
	}
	if ownerID != "" {
		if _, err := tx.ExecContext(ctx, `INSERT INTO board_members (board_id, member_id, role, joined_at) VALUES (?, ?, ?, ?)`,
			b.ID, ownerID, board.OwnerRole, formatTime(b.CreatedAt)); err != nil {
			return board.Board{}, fmt.Errorf("insert board owner: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return board.Board{}, fmt.Errorf("commit create board: %w", err)
	}
	return b, nil
}

func (s *Store) GetBoard(ctx context.Context, id string) (board.Board, error) {
	var b board.Board
	var createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT id, title, description, created_at FROM boards WHERE id = ?`, id).
		Scan(&b.ID, &b.Title, &b.Description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Board{}, board.NotFound("board")
	}
	if err != nil {
		return board.Board{}, fmt.Errorf("get board: %w", err)
	}
	b.CreatedAt = parseTime(createdAt)
	return b, nil
}

func (s *Store) ListBoards(ctx context.Context) ([]board.Board, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description, created_at FROM boards ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	out := []board.Board{}
	for rows.Next() {
		var b board.Board
		var createdAt string
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		b.CreatedAt = parseTime(createdAt)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate boards: %w", err)
	}
	return out, nil
}

// DefaultBoardID returns the oldest board, or "" when there is none.
func (s *Store) DefaultBoardID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM boards ORDER BY created_at ASC, id ASC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("default board: %w", err)
	}
	return id, nil
}

func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return expectAffected(res, "board")
}

func (s *Store) ListMembers(ctx context.Context) ([]board.Member, error) {
	return s.queryMembers(ctx, `SELECT id, name, role, avatar FROM members ORDER BY id ASC`)
}

func (s *Store) GetMember(ctx context.Context, id string) (board.Member, error) {
	var m board.Member
	err := s.db.QueryRowContext(ctx, `SELECT id, name, role, avatar FROM members WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Role, &m.Avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Member{}, board.NotFound("member")
	}
	if err != nil {
		return board.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *Store) UpsertMember(ctx context.Context, m board.Member) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO members (id, name, role, avatar) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, role = excluded.role, avatar = excluded.avatar`,
		m.ID, m.Name, m.Role, m.Avatar)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

func (s *Store) ListBoardMembers(ctx context.Context, boardID string) ([]board.Member, error) {
	return s.queryMembers(ctx, `SELECT m.id, m.name, m.role, m.avatar
		FROM members m JOIN board_members bm ON bm.member_id = m.id
		WHERE bm.board_id = ?
		ORDER BY bm.joined_at ASC, m.id ASC`, boardID)
}

func (s *Store) AddBoardMember(ctx context.Context, boardID, memberID, role string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO board_members (board_id, member_id, role, joined_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(board_id, member_id) DO UPDATE SET role = excluded.role`,
		boardID, memberID, role, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("add board member: %w", err)
	}
	return nil
}

func (s *Store) RemoveBoardMember(ctx context.Context, boardID, memberID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM board_members WHERE board_id = ? AND member_id = ?`, boardID, memberID)
	if err != nil {
		return fmt.Errorf("remove board member: %w", err)
	}
	return expectAffected(res, "board member")
}

func (s *Store) queryMembers(ctx context.Context, query string, args ...any) ([]board.Member, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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

func expectAffected(res sql.Result, target string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return board.NotFound(target)
	}
	return nil
}
