package board

import "context"

// Repository is the persistence contract of the board engine. Missing rows
// are reported with NotFound errors; list operations never return nil slices.
type Repository interface {
	CreateBoard(ctx context.Context, b Board, ownerID string) (Board, error)
	GetBoard(ctx context.Context, id string) (Board, error)
	ListBoards(ctx context.Context) ([]Board, error)
	DefaultBoardID(ctx context.Context) (string, error)
	DeleteBoard(ctx context.Context, id string) error

	ListMembers(ctx context.Context) ([]Member, error)
	GetMember(ctx context.Context, id string) (Member, error)
	UpsertMember(ctx context.Context, m Member) error
	ListBoardMembers(ctx context.Context, boardID string) ([]Member, error)
	AddBoardMember(ctx context.Context, boardID, memberID, role string) error
	RemoveBoardMember(ctx context.Context, boardID, memberID string) error

	CreateTask(ctx context.Context, t Task) (Task, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	SaveTask(ctx context.Context, t Task) error
	ListTasks(ctx context.Context, boardID string, filter TaskFilter) ([]Task, error)
	ListAllTasks(ctx context.Context) ([]Task, error)

	AppendActivity(ctx context.Context, a Activity) (Activity, error)
	ListActivities(ctx context.Context, taskID int64) ([]Activity, error)

	CreateDocument(ctx context.Context, d Document) (Document, error)
	GetDocument(ctx context.Context, id int64) (Document, error)
	SaveDocument(ctx context.Context, d Document) (Document, error)
	DeleteDocument(ctx context.Context, id int64) error
	ListDocuments(ctx context.Context, boardID string) ([]Document, error)
	ListAllDocuments(ctx context.Context) ([]Document, error)
}

// Indexer refreshes stored embeddings. Implementations log their own
// failures; the returned error is informational.
type Indexer interface {
	IndexTask(ctx context.Context, id int64, text string) error
	IndexDocument(ctx context.Context, id int64, text string) error
}

// Notifier signals connected viewers that board state changed.
type Notifier interface {
	Notify(ctx context.Context) error
}

// Searcher ranks stored rows against free text.
type Searcher interface {
	Tasks(ctx context.Context, query, boardID string) ([]Task, error)
	Documents(ctx context.Context, query, boardID string) ([]Document, error)
}

// Submitter runs detached background work. Submit must not block.
type Submitter interface {
	Submit(name string, fn func(ctx context.Context)) bool
}
