package board

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	DefaultListID     = "todo"
	DefaultMemberRole = "editor"
	OwnerRole         = "owner"

	RoleHuman = "human"
	RoleAgent = "agent"
)

type Action string

const (
	ActionMoved      Action = "moved"
	ActionAssigned   Action = "assigned"
	ActionUnassigned Action = "unassigned"
	ActionUpdated    Action = "updated"
)

type Board struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Task struct {
	ID          int64     `json:"id"`
	BoardID     string    `json:"board_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ListID      string    `json:"list_id"`
	Position    int       `json:"position"`
	AssigneeID  *string   `json:"assignee_id"`
	Embedding   []float32 `json:"-"`
}

// IndexText is the text the task's embedding summarizes.
func (t Task) IndexText() string {
	return t.Title + " " + t.Description
}

func (t Task) assignee() string {
	if t.AssigneeID == nil {
		return ""
	}
	return *t.AssigneeID
}

type Member struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

type BoardMember struct {
	BoardID  string    `json:"board_id"`
	MemberID string    `json:"member_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type Activity struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    string    `json:"user_id"`
	Action    Action    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

type Document struct {
	ID        int64     `json:"id"`
	BoardID   string    `json:"board_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d Document) IndexText() string {
	return d.Title + " " + d.Content
}

// Optional records whether a JSON field was present at all, so that an
// explicit null can be told apart from an omitted key.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

type NewTask struct {
	BoardID     string  `json:"board_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ListID      string  `json:"list_id"`
	Position    int     `json:"position"`
	AssigneeID  *string `json:"assignee_id"`
}

// TaskPatch is a partial update. Empty strings leave title, description and
// board_id unchanged; ListID and Position apply whenever they are present.
type TaskPatch struct {
	BoardID     string           `json:"board_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ListID      *string          `json:"list_id"`
	Position    *int             `json:"position"`
	AssigneeID  Optional[string] `json:"assignee_id"`
	UpdatedBy   string           `json:"updated_by"`
}

type TaskFilter struct {
	ListID     string
	AssigneeID string
}

type NewBoard struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OwnerID     string `json:"owner_id"`
}

type NewDocument struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type DocumentPatch struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type BoardMemberRequest struct {
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
}
