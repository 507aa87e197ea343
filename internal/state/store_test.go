package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitsinc/agentboard/internal/board"
	"github.com/flitsinc/agentboard/internal/embedding"
	"github.com/flitsinc/agentboard/internal/state"
	"github.com/flitsinc/agentboard/internal/testutil"
)

func seededStore(t *testing.T) (*state.Store, board.Board) {
	t.Helper()
	store := testutil.OpenTestStore(t)
	ctx := context.Background()
	require.NoError(t, board.Seed(ctx, store, board.DefaultMembers, time.Now()))
	boards, err := store.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	return store, boards[0]
}

func strPtr(s string) *string { return &s }

func TestSeedIsIdempotent(t *testing.T) {
	store, b := seededStore(t)
	ctx := context.Background()
	require.NoError(t, board.Seed(ctx, store, board.DefaultMembers, time.Now()))

	boards, err := store.ListBoards(ctx)
	require.NoError(t, err)
	assert.Len(t, boards, 1)
	assert.Equal(t, board.DefaultBoardTitle, b.Title)

	members, err := store.ListBoardMembers(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, members, len(board.DefaultMembers))
}

func TestTaskOrderingAndFilters(t *testing.T) {
	store, b := seededStore(t)
	ctx := context.Background()

	third, err := store.CreateTask(ctx, board.Task{BoardID: b.ID, Title: "c", ListID: "todo", Position: 3})
	require.NoError(t, err)
	first, err := store.CreateTask(ctx, board.Task{BoardID: b.ID, Title: "a", ListID: "todo", Position: 1})
	require.NoError(t, err)
	doing, err := store.CreateTask(ctx, board.Task{BoardID: b.ID, Title: "b", ListID: "doing", Position: 2, AssigneeID: strPtr("devo")})
	require.NoError(t, err)

	all, err := store.ListTasks(ctx, b.ID, board.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{first.ID, doing.ID, third.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	filtered, err := store.ListTasks(ctx, b.ID, board.TaskFilter{ListID: "doing", AssigneeID: "devo"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, doing.ID, filtered[0].ID)
	require.NotNil(t, filtered[0].AssigneeID)
	assert.Equal(t, "devo", *filtered[0].AssigneeID)

	empty, err := store.ListTasks(ctx, "missing", board.TaskFilter{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGetTaskNotFound(t *testing.T) {
	store := testutil.OpenTestStore(t)
	_, err := store.GetTask(context.Background(), 42)
	assert.Equal(t, board.KindNotFound, board.KindOf(err))

	err = store.SaveTask(context.Background(), board.Task{ID: 42, Title: "x"})
	assert.Equal(t, board.KindNotFound, board.KindOf(err))
}

func TestActivitiesNewestFirst(t *testing.T) {
	store, b := seededStore(t)
	ctx := context.Background()
	task, err := store.CreateTask(ctx, board.Task{BoardID: b.ID, Title: "t", ListID: "todo"})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, action := range []board.Action{board.ActionMoved, board.ActionAssigned, board.ActionUpdated} {
		_, err := store.AppendActivity(ctx, board.Activity{TaskID: task.ID, UserID: "mirza", Action: action, CreatedAt: base.Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}

	items, err := store.ListActivities(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, board.ActionUpdated, items[0].Action)
	assert.Equal(t, board.ActionMoved, items[2].Action)

	none, err := store.ListActivities(ctx, 9999)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestDeleteBoardCascades(t *testing.T) {
	store, b := seededStore(t)
	ctx := context.Background()

	task, err := store.CreateTask(ctx, board.Task{BoardID: b.ID, Title: "t", ListID: "todo"})
	require.NoError(t, err)
	_, err = store.AppendActivity(ctx, board.Activity{TaskID: task.ID, UserID: "mirza", Action: board.ActionMoved})
	require.NoError(t, err)
	_, err = store.CreateDocument(ctx, board.Document{BoardID: b.ID, Title: "doc"})
	require.NoError(t, err)

	require.NoError(t, store.DeleteBoard(ctx, b.ID))

	tasks, err := store.ListTasks(ctx, b.ID, board.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	docs, err := store.ListDocuments(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
	members, err := store.ListBoardMembers(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
	acts, err := store.ListActivities(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, acts)

	assert.True(t, board.IsNotFound(store.DeleteBoard(ctx, b.ID)))
}

func TestDefaultBoardIsOldest(t *testing.T) {
	store := testutil.OpenTestStore(t)
	ctx := context.Background()

	id, err := store.DefaultBoardID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = store.CreateBoard(ctx, board.Board{ID: "b-new", Title: "new", CreatedAt: older.Add(time.Hour)}, "")
	require.NoError(t, err)
	_, err = store.CreateBoard(ctx, board.Board{ID: "b-old", Title: "old", CreatedAt: older}, "")
	require.NoError(t, err)

	id, err = store.DefaultBoardID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b-old", id)
}

func TestNearestSkipsMissingAndMismatchedVectors(t *testing.T) {
	store, b := seededStore(t)
	ctx := context.Background()

	near, err := store.CreateTask(ctx, board.Task{BoardID: b.ID, Title: "near", ListID: "todo"})
	require.NoError(t, err)
	far, err := store.CreateTask(ctx, board.Task{BoardID: b.ID, Title: "far", ListID: "todo"})
	require.NoError(t, err)
	_, err = store.CreateTask(ctx, board.Task{BoardID: b.ID, Title: "unindexed", ListID: "todo"})
	require.NoError(t, err)
	odd, err := store.CreateTask(ctx, board.Task{BoardID: b.ID, Title: "odd", ListID: "todo"})
	require.NoError(t, err)

	require.NoError(t, store.SetTaskEmbedding(ctx, near.ID, near.IndexText(), []float32{1, 0}))
	require.NoError(t, store.SetTaskEmbedding(ctx, far.ID, far.IndexText(), []float32{0, 1}))
	require.NoError(t, store.SetTaskEmbedding(ctx, odd.ID, odd.IndexText(), []float32{1, 0, 0}))

	got, err := store.NearestTasks(ctx, []float32{0.9, 0.1}, b.ID, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, near.ID, got[0].ID)
	assert.Equal(t, far.ID, got[1].ID)

	limited, err := store.NearestTasks(ctx, []float32{0.9, 0.1}, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	doc, err := store.CreateDocument(ctx, board.Document{BoardID: b.ID, Title: "doc"})
	require.NoError(t, err)
	docs, err := store.NearestDocuments(ctx, []float32{1, 0}, b.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, docs)

	require.NoError(t, store.SetDocumentEmbedding(ctx, doc.ID, doc.IndexText(), []float32{1, 0}))
	docs, err = store.NearestDocuments(ctx, []float32{1, 0}, b.ID, 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.ID, docs[0].ID)
}

func TestSaveTaskKeepsEmbedding(t *testing.T) {
	store, b := seededStore(t)
	ctx := context.Background()

	task, err := store.CreateTask(ctx, board.Task{BoardID: b.ID, Title: "t", ListID: "todo"})
	require.NoError(t, err)
	require.NoError(t, store.SetTaskEmbedding(ctx, task.ID, task.IndexText(), []float32{1, 2}))

	task.Title = "renamed"
	task.Embedding = nil
	require.NoError(t, store.SaveTask(ctx, task))

	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, []float32{1, 2}, got.Embedding)
}

func TestSetEmbeddingRequiresCurrentText(t *testing.T) {
	store, b := seededStore(t)
	ctx := context.Background()

	task, err := store.CreateTask(ctx, board.Task{BoardID: b.ID, Title: "t", Description: "oldtext", ListID: "todo"})
	require.NoError(t, err)
	stale := task.IndexText()
	task.Description = "newtext"
	require.NoError(t, store.SaveTask(ctx, task))

	err = store.SetTaskEmbedding(ctx, task.ID, stale, []float32{1, 0})
	require.ErrorIs(t, err, embedding.ErrStale)
	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Embedding)

	require.NoError(t, store.SetTaskEmbedding(ctx, task.ID, "t newtext", []float32{0, 1}))
	got, err = store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, got.Embedding)

	err = store.SetDocumentEmbedding(ctx, 424242, "x", []float32{1})
	assert.True(t, board.IsNotFound(err))
}

func TestAssigneeMustReferenceMember(t *testing.T) {
	store, b := seededStore(t)
	_, err := store.CreateTask(context.Background(), board.Task{BoardID: b.ID, Title: "t", ListID: "todo", AssigneeID: strPtr("ghost")})
	require.Error(t, err)
}
