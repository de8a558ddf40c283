package repo

import (
	"context"
	"fmt"
	"slices"
	"sync"

	dom "todoboard/internal/domain"
	"todoboard/internal/query"

	"github.com/benbjohnson/clock"
)

// MemTodoRepo keeps todos in process. It evaluates query plans with the same
// semantics as the SQL they render to and is used for local runs and tests.
type MemTodoRepo struct {
	mu     sync.RWMutex
	clock  clock.Clock
	nextID int64
	rows   []dom.Todo // insertion order
}

func NewMemTodoRepo(clk clock.Clock) *MemTodoRepo {
	return &MemTodoRepo{clock: clk, nextID: 1}
}

func (r *MemTodoRepo) Create(_ context.Context, t dom.Todo) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	t.ID = r.nextID
	r.nextID++
	t.CreatedAt, t.UpdatedAt = now, now
	if t.Priority == "" {
		t.Priority = dom.PriorityMedium
	}
	r.rows = append(r.rows, t)
	return t, nil
}

func (r *MemTodoRepo) GetByID(_ context.Context, id int64) (dom.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.index(id)
	if i < 0 {
		return dom.Todo{}, ErrNoRows
	}
	return r.rows[i], nil
}

func (r *MemTodoRepo) List(_ context.Context, plan query.Plan, limit, offset int) ([]dom.Todo, error) {
	if offset < 0 {
		return nil, fmt.Errorf("repo: negative offset %d", offset)
	}
	r.mu.RLock()
	var out []dom.Todo
	for _, t := range r.rows {
		if plan.Match(t) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	slices.SortStableFunc(out, plan.Compare)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemTodoRepo) Count(_ context.Context, where []query.Cond) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, t := range r.rows {
		if query.MatchAll(where, t) {
			n++
		}
	}
	return n, nil
}

func (r *MemTodoRepo) Update(_ context.Context, id int64, p TodoPatch) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return dom.Todo{}, ErrNoRows
	}
	p.apply(&r.rows[i])
	r.rows[i].UpdatedAt = r.clock.Now()
	return r.rows[i], nil
}

func (r *MemTodoRepo) Toggle(_ context.Context, id int64) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return dom.Todo{}, ErrNoRows
	}
	r.rows[i].Completed = !r.rows[i].Completed
	r.rows[i].UpdatedAt = r.clock.Now()
	return r.rows[i], nil
}

func (r *MemTodoRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return ErrNoRows
	}
	r.rows = slices.Delete(r.rows, i, i+1)
	return nil
}

func (r *MemTodoRepo) SetCompletedMany(_ context.Context, ids []int64, completed bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkAll(ids); err != nil {
		return 0, err
	}
	now := r.clock.Now()
	var n int64
	for i := range r.rows {
		if slices.Contains(ids, r.rows[i].ID) {
			r.rows[i].Completed = completed
			r.rows[i].UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *MemTodoRepo) DeleteMany(_ context.Context, ids []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkAll(ids); err != nil {
		return 0, err
	}
	before := len(r.rows)
	r.rows = slices.DeleteFunc(r.rows, func(t dom.Todo) bool {
		return slices.Contains(ids, t.ID)
	})
	return int64(before - len(r.rows)), nil
}

// checkAll must be called with the write lock held.
func (r *MemTodoRepo) checkAll(ids []int64) error {
	have := make([]int64, 0, len(r.rows))
	for _, t := range r.rows {
		have = append(have, t.ID)
	}
	if missing := missingIDs(ids, have); len(missing) > 0 {
		return &MissingIDsError{IDs: missing}
	}
	return nil
}

func (r *MemTodoRepo) index(id int64) int {
	return slices.IndexFunc(r.rows, func(t dom.Todo) bool { return t.ID == id })
}
