package board

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flitsinc/agentboard/internal/idgen"
)

const DefaultActor = "mirza"

// Service is the mutation and query entry point shared by the HTTP API and
// the MCP adapter.
type Service struct {
	repo     Repository
	ledger   *Ledger
	indexer  Indexer
	notifier Notifier
	searcher Searcher
	jobs     Submitter
	log      logrus.FieldLogger

	defaultActor string
	nowFn        func() time.Time
}

type Option func(*Service)

func WithIndexer(ix Indexer) Option {
	return func(s *Service) { s.indexer = ix }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithSearcher(sr Searcher) Option {
	return func(s *Service) { s.searcher = sr }
}

func WithSubmitter(sub Submitter) Option {
	return func(s *Service) {
		if sub != nil {
			s.jobs = sub
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithDefaultActor(actor string) Option {
	return func(s *Service) {
		if strings.TrimSpace(actor) != "" {
			s.defaultActor = actor
		}
	}
}

func WithClock(nowFn func() time.Time) Option {
	return func(s *Service) {
		if nowFn != nil {
			s.nowFn = nowFn
		}
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		jobs:         goSubmitter{},
		log:          logrus.StandardLogger(),
		defaultActor: DefaultActor,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.ledger = NewLedger(repo, s.log.WithField("component", "ledger"))
	return s
}

func (s *Service) DefaultActor() string { return s.defaultActor }

func (s *Service) now() time.Time { return s.nowFn().UTC() }

// --- boards ---

func (s *Service) ListBoards(ctx context.Context) ([]Board, error) {
	items, err := s.repo.ListBoards(ctx)
	if err != nil {
		return nil, classify("list boards", err)
	}
	return nonNil(items), nil
}

func (s *Service) GetBoard(ctx context.Context, id string) (Board, error) {
	b, err := s.repo.GetBoard(ctx, id)
	if err != nil {
		return Board{}, classify("get board", err)
	}
	return b, nil
}

func (s *Service) CreateBoard(ctx context.Context, in NewBoard) (Board, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Board{}, BadRequest("title is required")
	}
	owner := in.OwnerID
	if owner == "" {
		owner = s.defaultActor
	}
	if err := s.requireMember(ctx, owner); err != nil {
		return Board{}, err
	}
	b, err := s.repo.CreateBoard(ctx, Board{
		ID:          idgen.NewBoardID(),
		Title:       title,
		Description: in.Description,
		CreatedAt:   s.now(),
	}, owner)
	if err != nil {
		return Board{}, classify("create board", err)
	}
	return b, nil
}

func (s *Service) DeleteBoard(ctx context.Context, id string) error {
	if err := s.repo.DeleteBoard(ctx, id); err != nil {
		return classify("delete board", err)
	}
	s.signal()
	return nil
}

// ResolveBoardID returns id, or the default board when id is empty.
func (s *Service) ResolveBoardID(ctx context.Context, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	def, err := s.repo.DefaultBoardID(ctx)
	if err != nil {
		return "", classify("resolve board", err)
	}
	if def == "" {
		return "", BadRequest("no board found")
	}
	return def, nil
}

// --- members ---

func (s *Service) ListMembers(ctx context.Context) ([]Member, error) {
	items, err := s.repo.ListMembers(ctx)
	if err != nil {
		return nil, classify("list members", err)
	}
	return nonNil(items), nil
}

func (s *Service) UpsertMember(ctx context.Context, m Member) (Member, error) {
	if err := idgen.ValidateHandle(m.ID); err != nil {
		return Member{}, BadRequest("%v", err)
	}
	if strings.TrimSpace(m.Name) == "" {
		return Member{}, BadRequest("name is required")
	}
	if m.Role != RoleHuman && m.Role != RoleAgent {
		return Member{}, BadRequest("role must be %q or %q", RoleHuman, RoleAgent)
	}
	if err := s.repo.UpsertMember(ctx, m); err != nil {
		return Member{}, classify("upsert member", err)
	}
	return m, nil
}

func (s *Service) ListBoardMembers(ctx context.Context, boardID string) ([]Member, error) {
	items, err := s.repo.ListBoardMembers(ctx, boardID)
	if err != nil {
		return nil, classify("list board members", err)
	}
	return nonNil(items), nil
}

func (s *Service) AddBoardMember(ctx context.Context, boardID string, req BoardMemberRequest) (BoardMember, error) {
	if req.MemberID == "" {
		return BoardMember{}, BadRequest("member_id is required")
	}
	if req.Role == "" {
		req.Role = DefaultMemberRole
	}
	if _, err := s.repo.GetBoard(ctx, boardID); err != nil {
		return BoardMember{}, classify("get board", err)
	}
	if err := s.requireMember(ctx, req.MemberID); err != nil {
		return BoardMember{}, err
	}
	if err := s.repo.AddBoardMember(ctx, boardID, req.MemberID, req.Role); err != nil {
		return BoardMember{}, classify("add board member", err)
	}
	return BoardMember{BoardID: boardID, MemberID: req.MemberID, Role: req.Role, JoinedAt: s.now()}, nil
}

func (s *Service) RemoveBoardMember(ctx context.Context, boardID, memberID string) error {
	if err := s.repo.RemoveBoardMember(ctx, boardID, memberID); err != nil {
		return classify("remove board member", err)
	}
	return nil
}

// --- tasks ---

func (s *Service) CreateTask(ctx context.Context, in NewTask) (Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, BadRequest("title is required")
	}
	boardID, err := s.ResolveBoardID(ctx, in.BoardID)
	if err != nil {
		return Task{}, err
	}
	if in.BoardID != "" {
		if err := s.requireBoard(ctx, boardID); err != nil {
			return Task{}, err
		}
	}
	listID := in.ListID
	if listID == "" {
		listID = DefaultListID
	}
	assignee := in.AssigneeID
	if assignee != nil && *assignee == "" {
		assignee = nil
	}
	if assignee != nil {
		if err := s.requireMember(ctx, *assignee); err != nil {
			return Task{}, err
		}
	}

	t, err := s.repo.CreateTask(ctx, Task{
		BoardID:     boardID,
		Title:       title,
		Description: in.Description,
		ListID:      listID,
		Position:    in.Position,
		AssigneeID:  assignee,
	})
	if err != nil {
		return Task{}, classify("create task", err)
	}
	s.afterTaskWrite(t)
	return t, nil
}

func (s *Service) GetTask(ctx context.Context, id int64) (Task, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, classify("get task", err)
	}
	return t, nil
}

// UpdateTask merges p into the stored task, records the resulting activities
// and schedules re-indexing and a broadcast.
func (s *Service) UpdateTask(ctx context.Context, id int64, p TaskPatch) (Task, error) {
	old, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, classify("get task", err)
	}
	next := Merge(old, p)
	if next.BoardID != old.BoardID {
		if err := s.requireBoard(ctx, next.BoardID); err != nil {
			return Task{}, err
		}
	}
	if next.AssigneeID != nil && next.assignee() != old.assignee() {
		if err := s.requireMember(ctx, *next.AssigneeID); err != nil {
			return Task{}, err
		}
	}
	if err := s.repo.SaveTask(ctx, next); err != nil {
		return Task{}, classify("update task", err)
	}

	actor := p.UpdatedBy
	if actor == "" {
		actor = s.defaultActor
	}
	s.ledger.Record(context.WithoutCancel(ctx), Diff(old, next, actor))
	s.afterTaskWrite(next)
	return next, nil
}

func (s *Service) ListTasks(ctx context.Context, boardID string, filter TaskFilter) ([]Task, error) {
	items, err := s.repo.ListTasks(ctx, boardID, filter)
	if err != nil {
		return nil, classify("list tasks", err)
	}
	return nonNil(items), nil
}

// ListActivities returns NotFound for an unknown task rather than an empty log.
func (s *Service) ListActivities(ctx context.Context, taskID int64) ([]Activity, error) {
	if _, err := s.repo.GetTask(ctx, taskID); err != nil {
		return nil, classify("get task", err)
	}
	return s.ledger.History(ctx, taskID)
}

// --- documents ---

func (s *Service) ListDocuments(ctx context.Context, boardID string) ([]Document, error) {
	items, err := s.repo.ListDocuments(ctx, boardID)
	if err != nil {
		return nil, classify("list documents", err)
	}
	return nonNil(items), nil
}

func (s *Service) GetDocument(ctx context.Context, id int64) (Document, error) {
	d, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, classify("get document", err)
	}
	return d, nil
}

func (s *Service) CreateDocument(ctx context.Context, boardID string, in NewDocument) (Document, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Document{}, BadRequest("title is required")
	}
	if _, err := s.repo.GetBoard(ctx, boardID); err != nil {
		return Document{}, classify("get board", err)
	}
	now := s.now()
	d, err := s.repo.CreateDocument(ctx, Document{
		BoardID:   boardID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Document{}, classify("create document", err)
	}
	s.afterDocumentWrite(d)
	return d, nil
}

func (s *Service) UpdateDocument(ctx context.Context, id int64, p DocumentPatch) (Document, error) {
	d, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, classify("get document", err)
	}
	if p.Title != "" {
		d.Title = p.Title
	}
	if p.Content != "" {
		d.Content = p.Content
	}
	d.UpdatedAt = s.now()
	d.Embedding = nil
	saved, err := s.repo.SaveDocument(ctx, d)
	if err != nil {
		return Document{}, classify("update document", err)
	}
	s.afterDocumentWrite(saved)
	return saved, nil
}

func (s *Service) DeleteDocument(ctx context.Context, id int64) error {
	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return classify("delete document", err)
	}
	return nil
}

// --- search ---

func (s *Service) SearchTasks(ctx context.Context, query, boardID string) ([]Task, error) {
	if strings.TrimSpace(query) == "" {
		return nil, BadRequest("query required")
	}
	if s.searcher == nil {
		return nil, Unavailable("search is not configured", nil)
	}
	items, err := s.searcher.Tasks(ctx, query, boardID)
	if err != nil {
		return nil, classify("search tasks", err)
	}
	return nonNil(items), nil
}

func (s *Service) SearchDocuments(ctx context.Context, query, boardID string) ([]Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, BadRequest("query required")
	}
	if s.searcher == nil {
		return nil, Unavailable("search is not configured", nil)
	}
	items, err := s.searcher.Documents(ctx, query, boardID)
	if err != nil {
		return nil, classify("search documents", err)
	}
	return nonNil(items), nil
}

// Reindex recomputes embeddings synchronously. With onlyMissing set, rows
// that already carry a vector are skipped. It returns the number of rows
// indexed successfully.
func (s *Service) Reindex(ctx context.Context, onlyMissing bool) (int, error) {
	if s.indexer == nil {
		return 0, Unavailable("indexing is not configured", nil)
	}
	tasks, err := s.repo.ListAllTasks(ctx)
	if err != nil {
		return 0, classify("list tasks", err)
	}
	docs, err := s.repo.ListAllDocuments(ctx)
	if err != nil {
		return 0, classify("list documents", err)
	}

	indexed := 0
	for _, t := range tasks {
		if onlyMissing && len(t.Embedding) > 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if s.indexer.IndexTask(ctx, t.ID, t.IndexText()) == nil {
			indexed++
		}
	}
	for _, d := range docs {
		if onlyMissing && len(d.Embedding) > 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if s.indexer.IndexDocument(ctx, d.ID, d.IndexText()) == nil {
			indexed++
		}
	}
	return indexed, nil
}

// --- helpers ---

func (s *Service) requireBoard(ctx context.Context, id string) error {
	if _, err := s.repo.GetBoard(ctx, id); err != nil {
		if IsNotFound(err) {
			return BadRequest("board %s does not exist", id)
		}
		return classify("get board", err)
	}
	return nil
}

func (s *Service) requireMember(ctx context.Context, id string) error {
	if _, err := s.repo.GetMember(ctx, id); err != nil {
		if IsNotFound(err) {
			return BadRequest("unknown member %q", id)
		}
		return classify("get member", err)
	}
	return nil
}

func (s *Service) afterTaskWrite(t Task) {
	if s.indexer != nil {
		id, text := t.ID, t.IndexText()
		s.jobs.Submit("index-task", func(ctx context.Context) {
			_ = s.indexer.IndexTask(ctx, id, text)
		})
	}
	s.signal()
}

func (s *Service) afterDocumentWrite(d Document) {
	if s.indexer == nil {
		return
	}
	id, text := d.ID, d.IndexText()
	s.jobs.Submit("index-document", func(ctx context.Context) {
		_ = s.indexer.IndexDocument(ctx, id, text)
	})
}

func (s *Service) signal() {
	if s.notifier == nil {
		return
	}
	s.jobs.Submit("notify", func(ctx context.Context) {
		if err := s.notifier.Notify(ctx); err != nil {
			s.log.WithError(err).Warn("state change notification failed")
		}
	})
}

func classify(msg string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(msg, err)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

type goSubmitter struct{}

func (goSubmitter) Submit(_ string, fn func(ctx context.Context)) bool {
	go fn(context.Background())
	return true
}
