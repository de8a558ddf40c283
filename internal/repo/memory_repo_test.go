package repo

import (
	"context"
	"testing"
	"time"

	dom "todoboard/internal/domain"
	"todoboard/internal/query"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMem(t *testing.T) (*MemTodoRepo, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	return NewMemTodoRepo(clk), clk
}

func seed(t *testing.T, r *MemTodoRepo, clk *clock.Mock, titles ...string) []dom.Todo {
	t.Helper()
	out := make([]dom.Todo, 0, len(titles))
	for _, title := range titles {
		todo, err := r.Create(context.Background(), dom.Todo{Title: title, Priority: dom.PriorityMedium})
		require.NoError(t, err)
		out = append(out, todo)
		clk.Add(time.Minute)
	}
	return out
}

func TestMemCreateAssignsIncreasingIDs(t *testing.T) {
	r, clk := newMem(t)
	rows := seed(t, r, clk, "a", "b", "c")
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, int64(3), rows[2].ID)
	assert.True(t, rows[2].CreatedAt.After(rows[0].CreatedAt))

	require.NoError(t, r.Delete(context.Background(), 3))
	d, err := r.Create(context.Background(), dom.Todo{Title: "d"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), d.ID, "ids are never reused")
	assert.Equal(t, dom.PriorityMedium, d.Priority)
}

func TestMemGetMissing(t *testing.T) {
	r, _ := newMem(t)
	_, err := r.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoRows)
	_, err = r.Toggle(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoRows)
	_, err = r.Update(context.Background(), 42, TodoPatch{})
	assert.ErrorIs(t, err, ErrNoRows)
	assert.ErrorIs(t, r.Delete(context.Background(), 42), ErrNoRows)
}

func TestMemListPaginatesSortedRows(t *testing.T) {
	r, clk := newMem(t)
	seed(t, r, clk, "e", "d", "c", "b", "a")
	plan := query.Shape(query.Filters{}, query.SortTitle, clk.Now())

	page, err := r.List(context.Background(), plan, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(page))

	page, err = r.List(context.Background(), plan, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"e"}, titles(page))

	page, err = r.List(context.Background(), plan, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMemCount(t *testing.T) {
	r, clk := newMem(t)
	rows := seed(t, r, clk, "a", "b", "c")
	_, err := r.Toggle(context.Background(), rows[1].ID)
	require.NoError(t, err)

	n, err := r.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = r.Count(context.Background(), []query.Cond{query.CompletedIs(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemUpdateWritesOnlyPatchedColumns(t *testing.T) {
	r, clk := newMem(t)
	ctx := context.Background()
	orig := seed(t, r, clk, "a")[0]
	clk.Add(time.Hour)

	// Another writer completes the row after the caller last read it.
	_, err := r.Toggle(ctx, orig.ID)
	require.NoError(t, err)

	title := "renamed"
	got, err := r.Update(ctx, orig.ID, TodoPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.True(t, got.Completed, "unpatched column keeps the concurrent write")
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(orig.UpdatedAt))

	desc := "notes"
	_, err = r.Update(ctx, orig.ID, TodoPatch{SetDescription: true, Description: &desc})
	require.NoError(t, err)
	got, err = r.Update(ctx, orig.ID, TodoPatch{SetDescription: true})
	require.NoError(t, err)
	assert.Nil(t, got.Description, "a set nil clears the column")
	assert.Equal(t, "renamed", got.Title)
}

func TestMemListRejectsNegativeOffset(t *testing.T) {
	r, clk := newMem(t)
	seed(t, r, clk, "a")
	_, err := r.List(context.Background(), query.Shape(query.Filters{}, query.SortDefault, clk.Now()), 15, -15)
	assert.Error(t, err)
}

func TestMemBulkIsAllOrNothing(t *testing.T) {
	r, clk := newMem(t)
	rows := seed(t, r, clk, "a", "b", "c")

	_, err := r.DeleteMany(context.Background(), []int64{rows[0].ID, 99, rows[2].ID})
	var missing *MissingIDsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []int64{99}, missing.IDs)

	n, err := r.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "nothing deleted")

	_, err = r.SetCompletedMany(context.Background(), []int64{77, rows[1].ID}, true)
	require.ErrorAs(t, err, &missing)
	n, err = r.Count(context.Background(), []query.Cond{query.CompletedIs(true)})
	require.NoError(t, err)
	assert.Zero(t, n, "nothing completed")

	affected, err := r.SetCompletedMany(context.Background(), []int64{rows[0].ID, rows[1].ID}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	affected, err = r.DeleteMany(context.Background(), []int64{rows[0].ID, rows[2].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	left, err := r.List(context.Background(), query.Plan{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, titles(left))
}

func TestMissingIDsError(t *testing.T) {
	err := &MissingIDsError{IDs: []int64{4, 9}}
	assert.Equal(t, "repo: missing ids 4,9", err.Error())
	assert.Equal(t, []int64{2}, missingIDs([]int64{1, 2, 3}, []int64{3, 1}))
	assert.Nil(t, missingIDs([]int64{1}, []int64{1}))
}

func titles(list []dom.Todo) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.Title
	}
	return out
}
