package board_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitsinc/agentboard/internal/board"
	"github.com/flitsinc/agentboard/internal/embedding"
	"github.com/flitsinc/agentboard/internal/jobs"
	"github.com/flitsinc/agentboard/internal/state"
	"github.com/flitsinc/agentboard/internal/testutil"
)

type inlineSubmitter struct{}

func (inlineSubmitter) Submit(_ string, fn func(ctx context.Context)) bool {
	fn(context.Background())
	return true
}

type countingNotifier struct {
	mu sync.Mutex
	n  int
}

func (c *countingNotifier) Notify(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

type recordingIndexer struct {
	mu    sync.Mutex
	tasks map[int64]string
	docs  map[int64]string
}

func (r *recordingIndexer) IndexTask(_ context.Context, id int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[id] = text
	return nil
}

func (r *recordingIndexer) IndexDocument(_ context.Context, id int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[id] = text
	return nil
}

type fixture struct {
	store    *state.Store
	svc      *board.Service
	notifier *countingNotifier
	indexer  *recordingIndexer
	boardID  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	require.NoError(t, board.Seed(ctx, store, board.DefaultMembers, time.Now()))
	boardID, err := store.DefaultBoardID(ctx)
	require.NoError(t, err)

	n := &countingNotifier{}
	ix := &recordingIndexer{tasks: map[int64]string{}, docs: map[int64]string{}}
	svc := board.NewService(store,
		board.WithNotifier(n),
		board.WithIndexer(ix),
		board.WithSubmitter(inlineSubmitter{}),
	)
	return fixture{store: store, svc: svc, notifier: n, indexer: ix, boardID: boardID}
}

func TestCreateTaskDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.svc.CreateTask(ctx, board.NewTask{Title: "Fix login bug", Description: "OAuth token expiry causes logout"})
	require.NoError(t, err)
	assert.Equal(t, f.boardID, task.BoardID)
	assert.Equal(t, board.DefaultListID, task.ListID)

	tasks, err := f.svc.ListTasks(ctx, f.boardID, board.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)

	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, "Fix login bug OAuth token expiry causes logout", f.indexer.tasks[task.ID])
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTask(ctx, board.NewTask{Title: "  "})
	assert.Equal(t, board.KindBadRequest, board.KindOf(err))

	_, err = f.svc.CreateTask(ctx, board.NewTask{Title: "x", BoardID: "nope"})
	assert.Equal(t, board.KindBadRequest, board.KindOf(err))

	_, err = f.svc.CreateTask(ctx, board.NewTask{Title: "x", AssigneeID: ptr("ghost")})
	assert.Equal(t, board.KindBadRequest, board.KindOf(err))

	assert.Equal(t, 0, f.notifier.count())
}

func TestCreateTaskWithoutBoards(t *testing.T) {
	store := testutil.OpenTestStore(t)
	svc := board.NewService(store, board.WithSubmitter(inlineSubmitter{}))
	_, err := svc.CreateTask(context.Background(), board.NewTask{Title: "orphan"})
	assert.Equal(t, board.KindBadRequest, board.KindOf(err))
}

func TestUpdateDescriptionOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.svc.CreateTask(ctx, board.NewTask{Title: "t", Description: "old"})
	require.NoError(t, err)

	updated, err := f.svc.UpdateTask(ctx, task.ID, board.TaskPatch{Description: "new"})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Description)

	acts, err := f.svc.ListActivities(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, board.ActionUpdated, acts[0].Action)
	assert.Equal(t, board.DefaultActor, acts[0].UserID)
	assert.Equal(t, "t new", f.indexer.tasks[task.ID])
}

func TestUpdateMoveIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.svc.CreateTask(ctx, board.NewTask{Title: "t"})
	require.NoError(t, err)

	patch := board.TaskPatch{ListID: ptr("doing"), UpdatedBy: "devo"}
	first, err := f.svc.UpdateTask(ctx, task.ID, patch)
	require.NoError(t, err)
	second, err := f.svc.UpdateTask(ctx, task.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	acts, err := f.svc.ListActivities(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, board.ActionMoved, acts[0].Action)
	assert.Contains(t, acts[0].Details, "doing")
	assert.Equal(t, "devo", acts[0].UserID)
}

func TestUpdateAssignAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.svc.CreateTask(ctx, board.NewTask{Title: "t"})
	require.NoError(t, err)

	_, err = f.svc.UpdateTask(ctx, task.ID, board.TaskPatch{AssigneeID: board.Some("kodinger")})
	require.NoError(t, err)
	acts, err := f.svc.ListActivities(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, board.ActionAssigned, acts[0].Action)

	cleared, err := f.svc.UpdateTask(ctx, task.ID, board.TaskPatch{AssigneeID: board.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.AssigneeID)
	acts, err = f.svc.ListActivities(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, board.ActionUnassigned, acts[0].Action)
}

func TestActivitiesOfUnknownTask(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ListActivities(context.Background(), 999)
	assert.True(t, board.IsNotFound(err))
}

func TestUpdateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateTask(ctx, 404, board.TaskPatch{Title: "x"})
	assert.Equal(t, board.KindNotFound, board.KindOf(err))

	task, err := f.svc.CreateTask(ctx, board.NewTask{Title: "t"})
	require.NoError(t, err)
	_, err = f.svc.UpdateTask(ctx, task.ID, board.TaskPatch{AssigneeID: board.Some("ghost")})
	assert.Equal(t, board.KindBadRequest, board.KindOf(err))

	got, err := f.svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssigneeID)
}

func TestDeleteBoardCascadesAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateTask(ctx, board.NewTask{Title: "t"})
	require.NoError(t, err)
	_, err = f.svc.CreateDocument(ctx, f.boardID, board.NewDocument{Title: "d"})
	require.NoError(t, err)
	before := f.notifier.count()

	require.NoError(t, f.svc.DeleteBoard(ctx, f.boardID))
	assert.Equal(t, before+1, f.notifier.count())

	tasks, err := f.svc.ListTasks(ctx, f.boardID, board.TaskFilter{})
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
	docs, err := f.svc.ListDocuments(ctx, f.boardID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	err = f.svc.DeleteBoard(ctx, f.boardID)
	assert.Equal(t, board.KindNotFound, board.KindOf(err))
}

func TestBoardsAndMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBoard(ctx, board.NewBoard{Title: ""})
	assert.Equal(t, board.KindBadRequest, board.KindOf(err))
	_, err = f.svc.CreateBoard(ctx, board.NewBoard{Title: "x", OwnerID: "ghost"})
	assert.Equal(t, board.KindBadRequest, board.KindOf(err))

	b, err := f.svc.CreateBoard(ctx, board.NewBoard{Title: "Research", OwnerID: "devo"})
	require.NoError(t, err)
	members, err := f.svc.ListBoardMembers(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "devo", members[0].ID)

	_, err = f.svc.UpsertMember(ctx, board.Member{ID: "Bad Handle", Name: "x", Role: board.RoleAgent})
	assert.Equal(t, board.KindBadRequest, board.KindOf(err))
	_, err = f.svc.UpsertMember(ctx, board.Member{ID: "scout", Name: "Scout", Role: "robot"})
	assert.Equal(t, board.KindBadRequest, board.KindOf(err))
	_, err = f.svc.UpsertMember(ctx, board.Member{ID: "scout", Name: "Scout", Role: board.RoleAgent})
	require.NoError(t, err)

	bm, err := f.svc.AddBoardMember(ctx, b.ID, board.BoardMemberRequest{MemberID: "scout"})
	require.NoError(t, err)
	assert.Equal(t, board.DefaultMemberRole, bm.Role)
	members, err = f.svc.ListBoardMembers(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	_, err = f.svc.AddBoardMember(ctx, "missing", board.BoardMemberRequest{MemberID: "scout"})
	assert.Equal(t, board.KindNotFound, board.KindOf(err))

	require.NoError(t, f.svc.RemoveBoardMember(ctx, b.ID, "scout"))
	err = f.svc.RemoveBoardMember(ctx, b.ID, "scout")
	assert.Equal(t, board.KindNotFound, board.KindOf(err))
}

func TestDocumentsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateDocument(ctx, "missing", board.NewDocument{Title: "d"})
	assert.Equal(t, board.KindNotFound, board.KindOf(err))

	doc, err := f.svc.CreateDocument(ctx, f.boardID, board.NewDocument{Title: "Runbook", Content: "restart the worker"})
	require.NoError(t, err)
	assert.Equal(t, "Runbook restart the worker", f.indexer.docs[doc.ID])

	updated, err := f.svc.UpdateDocument(ctx, doc.ID, board.DocumentPatch{Content: "drain then restart"})
	require.NoError(t, err)
	assert.Equal(t, "Runbook", updated.Title)
	assert.Equal(t, "drain then restart", updated.Content)
	assert.Equal(t, "Runbook drain then restart", f.indexer.docs[doc.ID])

	require.NoError(t, f.svc.DeleteDocument(ctx, doc.ID))
	_, err = f.svc.GetDocument(ctx, doc.ID)
	assert.Equal(t, board.KindNotFound, board.KindOf(err))
}

func TestSearchValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SearchTasks(ctx, " ", "")
	assert.Equal(t, board.KindBadRequest, board.KindOf(err))
	_, err = f.svc.SearchDocuments(ctx, "runbook", "")
	assert.Equal(t, board.KindUnavailable, board.KindOf(err))
}

func TestReindexOnlyMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.store.CreateTask(ctx, board.Task{BoardID: f.boardID, Title: "a", ListID: "todo"})
	require.NoError(t, err)
	b, err := f.store.CreateTask(ctx, board.Task{BoardID: f.boardID, Title: "b", ListID: "todo"})
	require.NoError(t, err)
	require.NoError(t, f.store.SetTaskEmbedding(ctx, a.ID, a.IndexText(), []float32{1}))

	n, err := f.svc.Reindex(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, f.indexer.tasks, b.ID)
	assert.NotContains(t, f.indexer.tasks, a.ID)

	n, err = f.svc.Reindex(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// gatedEmbedder holds back the vector for one text until release is closed.
type gatedEmbedder struct {
	slow    string
	release chan struct{}
}

func (g gatedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if text == g.slow {
		<-g.release
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

func TestOutOfOrderIndexingKeepsNewestVector(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	require.NoError(t, board.Seed(ctx, store, board.DefaultMembers, time.Now()))

	pool := jobs.NewPool(2, 16, nil)
	emb := gatedEmbedder{slow: "t oldtext", release: make(chan struct{})}
	svc := board.NewService(store,
		board.WithSubmitter(pool),
		board.WithIndexer(embedding.NewIndexer(emb, store, nil)),
	)

	task, err := svc.CreateTask(ctx, board.NewTask{Title: "t", Description: "oldtext"})
	require.NoError(t, err)
	_, err = svc.UpdateTask(ctx, task.ID, board.TaskPatch{Description: "newtext"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := store.GetTask(ctx, task.ID)
		return err == nil && len(got.Embedding) == 2 && got.Embedding[1] == 1
	}, 2*time.Second, 10*time.Millisecond)

	close(emb.release)
	require.NoError(t, pool.Close())

	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "t newtext", got.IndexText())
	assert.Equal(t, []float32{0, 1}, got.Embedding)
}
