package pgstore

import "fmt"

const columnTypeQuery = `SELECT format_type(a.atttypid, a.atttypmod)
FROM pg_attribute a
WHERE a.attrelid = $1::regclass AND a.attname = 'embedding' AND NOT a.attisdropped`

// checkColumnWidth compares a column type as printed by format_type with the
// configured width. ADD COLUMN IF NOT EXISTS never resizes a column.
func checkColumnWidth(table, columnType string, dims int) error {
	want := fmt.Sprintf("vector(%d)", dims)
	if columnType != want {
		return fmt.Errorf("%s.embedding is %s but embedding_dimensions is %d: drop the column or change the setting, then run reindex", table, columnType, dims)
	}
	return nil
}

func schemaStatements(dims int) []string {
	vec := fmt.Sprintf("vector(%d)", dims)
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS boards (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE TABLE IF NOT EXISTS members (
    id     TEXT PRIMARY KEY,
    name   TEXT NOT NULL,
    role   TEXT NOT NULL,
    avatar TEXT NOT NULL DEFAULT ''
)`,
		`CREATE TABLE IF NOT EXISTS board_members (
    board_id  TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
    member_id TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
    role      TEXT NOT NULL DEFAULT 'editor',
    joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (board_id, member_id)
)`,
		`CREATE TABLE IF NOT EXISTS tasks (
    id          BIGSERIAL PRIMARY KEY,
    board_id    TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    list_id     TEXT NOT NULL DEFAULT 'todo',
    position    INTEGER NOT NULL DEFAULT 0,
    assignee_id TEXT REFERENCES members(id) ON DELETE SET NULL
)`,
		`ALTER TABLE tasks ADD COLUMN IF NOT EXISTS embedding ` + vec,
		`CREATE INDEX IF NOT EXISTS idx_tasks_board_list_position ON tasks (board_id, list_id, position)`,
		`CREATE TABLE IF NOT EXISTS activities (
    id         BIGSERIAL PRIMARY KEY,
    task_id    BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
    user_id    TEXT NOT NULL,
    action     TEXT NOT NULL,
    details    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_task_created ON activities (task_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS documents (
    id         BIGSERIAL PRIMARY KEY,
    board_id   TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
    title      TEXT NOT NULL,
    content    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`ALTER TABLE documents ADD COLUMN IF NOT EXISTS embedding ` + vec,
		`CREATE INDEX IF NOT EXISTS idx_documents_board_updated ON documents (board_id, updated_at)`,
	}
}
