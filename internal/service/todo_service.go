package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	dom "todoboard/internal/domain"
	"todoboard/internal/query"
	"todoboard/internal/repo"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
)

// PageSize is the fixed number of todos per listing page.
const PageSize = 15

// maxPage keeps (page-1)*PageSize from overflowing; any page past the data
// is empty anyway.
const maxPage = math.MaxInt / PageSize

// Bulk actions.
const (
	ActionComplete   = "complete"
	ActionIncomplete = "incomplete"
	ActionDelete     = "delete"
)

type TodoService struct {
	repo     repo.TodoRepo
	clock    clock.Clock
	loc      *time.Location
	validate *validator.Validate
	sf       singleflight.Group
}

// NewTodoService creates a TodoService. loc decides where calendar days start
// for "due today"; nil means UTC.
func NewTodoService(r repo.TodoRepo, clk clock.Clock, loc *time.Location) *TodoService {
	if loc == nil {
		loc = time.UTC
	}
	return &TodoService{repo: r, clock: clk, loc: loc, validate: newValidator()}
}

// Now is the service's current instant in its location.
func (s *TodoService) Now() time.Time {
	return s.clock.Now().In(s.loc)
}

type ListParams struct {
	Status   string
	Priority string
	Search   string
	Sort     string
	Page     int
}

// Page is one offset-addressed slice of a listing.
type Page struct {
	Items       []dom.Todo
	CurrentPage int
	PerPage     int
	Total       int
	LastPage    int
	From        int
	To          int
	HasNext     bool
	HasPrev     bool
}

func newPage(items []dom.Todo, page, total int) Page {
	last := (total + PageSize - 1) / PageSize
	if last < 1 {
		last = 1
	}
	p := Page{
		Items:       items,
		CurrentPage: page,
		PerPage:     PageSize,
		Total:       total,
		LastPage:    last,
		HasNext:     page < last,
		HasPrev:     page > 1,
	}
	if len(items) > 0 {
		p.From = (page-1)*PageSize + 1
		p.To = p.From + len(items) - 1
	}
	return p
}

type ListResult struct {
	Page  Page
	Stats Stats
	// Now is the instant the listing was evaluated at.
	Now time.Time
}

func (s *TodoService) List(ctx context.Context, p ListParams) (ListResult, error) {
	now := s.Now()
	plan := query.Shape(query.Filters{
		Status:   query.ParseStatus(p.Status),
		Priority: dom.Priority(p.Priority),
		Search:   p.Search,
	}, query.ParseSort(p.Sort), now)

	page := min(max(p.Page, 1), maxPage)
	total, err := s.repo.Count(ctx, plan.Where)
	if err != nil {
		return ListResult{}, storageErr("count todos", err)
	}
	items, err := s.repo.List(ctx, plan, PageSize, (page-1)*PageSize)
	if err != nil {
		return ListResult{}, storageErr("list todos", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Page: newPage(items, page, total), Stats: stats, Now: now}, nil
}

func (s *TodoService) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.Todo{}, mapRepoErr("get todo", err)
	}
	return t, nil
}

// Result is the outcome of a single-todo mutation.
type Result struct {
	Todo    dom.Todo
	Message string
}

type CreateInput struct {
	Title       string
	Description *string
	Priority    string
	DueDate     *string
}

func (s *TodoService) Create(ctx context.Context, in CreateInput) (Result, error) {
	now := s.Now()
	t := dom.Todo{
		Title:       strings.TrimSpace(in.Title),
		Description: blankToNil(in.Description),
		Priority:    dom.Priority(strings.TrimSpace(in.Priority)),
	}

	verr := &ValidationError{}
	if err := check(s.validate, rulesFor(t), verr); err != nil {
		return Result{}, err
	}
	t.DueDate = resolveDueDate(in.DueDate, s.loc, verr)
	if t.DueDate != nil && !t.DueDate.After(now) {
		verr.add("due_date", "The due_date field must be a date after now.")
	}
	if err := verr.orNil(); err != nil {
		return Result{}, err
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return Result{}, storageErr("create todo", err)
	}
	return Result{Todo: created, Message: "Todo created successfully."}, nil
}

// Optional is a field of a partial update. Set with a nil Value means the
// field was sent as null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

type UpdateInput struct {
	Title       Optional[string]
	Description Optional[string]
	Priority    Optional[string]
	DueDate     Optional[string]
	Completed   Optional[bool]
}

// Update changes only the fields set in in. Unlike Create it accepts a due
// date in the past. Unsupplied columns are never written, so a concurrent
// toggle is not reverted.
func (s *TodoService) Update(ctx context.Context, id int64, in UpdateInput) (Result, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Result{}, mapRepoErr("get todo", err)
	}

	// t is the merged record used for validation; patch carries only the
	// supplied columns to the store.
	var patch repo.TodoPatch
	verr := &ValidationError{}
	if in.Title.Set {
		t.Title = strings.TrimSpace(deref(in.Title.Value))
		patch.Title = &t.Title
	}
	if in.Description.Set {
		t.Description = blankToNil(in.Description.Value)
		patch.SetDescription, patch.Description = true, t.Description
	}
	if in.Priority.Set {
		t.Priority = dom.Priority(strings.TrimSpace(deref(in.Priority.Value)))
		patch.Priority = &t.Priority
	}
	if in.DueDate.Set {
		t.DueDate = resolveDueDate(in.DueDate.Value, s.loc, verr)
		patch.SetDueDate, patch.DueDate = true, t.DueDate
	}
	if in.Completed.Set {
		if in.Completed.Value == nil {
			verr.add("completed", "The completed field must be true or false.")
		} else {
			t.Completed = *in.Completed.Value
			patch.Completed = &t.Completed
		}
	}
	if err := check(s.validate, rulesFor(t), verr); err != nil {
		return Result{}, err
	}
	if err := verr.orNil(); err != nil {
		return Result{}, err
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return Result{}, mapRepoErr("update todo", err)
	}
	return Result{Todo: updated, Message: "Todo updated successfully."}, nil
}

// Toggle flips completed. The message describes the new state.
func (s *TodoService) Toggle(ctx context.Context, id int64) (Result, error) {
	t, err := s.repo.Toggle(ctx, id)
	if err != nil {
		return Result{}, mapRepoErr("toggle todo", err)
	}
	msg := "Todo marked as pending."
	if t.Completed {
		msg = "Todo marked as completed."
	}
	return Result{Todo: t, Message: msg}, nil
}

func (s *TodoService) Delete(ctx context.Context, id int64) (Result, error) {
	if err := s.repo.Delete(ctx, id); err != nil {
		return Result{}, mapRepoErr("delete todo", err)
	}
	return Result{Message: "Todo deleted successfully."}, nil
}

type BulkInput struct {
	Action string
	IDs    []int64
}

type BulkResult struct {
	Action   string
	Affected int64
	Message  string
}

// Bulk applies action to every id or to none of them.
func (s *TodoService) Bulk(ctx context.Context, in BulkInput) (BulkResult, error) {
	action := strings.TrimSpace(in.Action)
	verr := &ValidationError{}
	if err := check(s.validate, bulkRules{Action: action, IDs: in.IDs}, verr); err != nil {
		return BulkResult{}, err
	}
	for i, id := range in.IDs {
		if id <= 0 {
			invalidID(verr, i)
		}
	}
	if err := verr.orNil(); err != nil {
		return BulkResult{}, err
	}

	ids := slices.Compact(slices.Sorted(slices.Values(in.IDs)))
	var (
		n   int64
		err error
		msg string
	)
	switch action {
	case ActionComplete:
		n, err = s.repo.SetCompletedMany(ctx, ids, true)
		msg = "Todos marked as completed."
	case ActionIncomplete:
		n, err = s.repo.SetCompletedMany(ctx, ids, false)
		msg = "Todos marked as pending."
	case ActionDelete:
		n, err = s.repo.DeleteMany(ctx, ids)
		msg = "Todos deleted successfully."
	}
	if err != nil {
		var missing *repo.MissingIDsError
		if errors.As(err, &missing) {
			for i, id := range in.IDs {
				if slices.Contains(missing.IDs, id) {
					invalidID(verr, i)
				}
			}
			return BulkResult{}, verr
		}
		return BulkResult{}, storageErr("bulk "+action, err)
	}
	return BulkResult{Action: action, Affected: n, Message: msg}, nil
}

func invalidID(verr *ValidationError, i int) {
	verr.add(fmt.Sprintf("ids.%d", i), fmt.Sprintf("The selected ids.%d is invalid.", i))
}

func rulesFor(t dom.Todo) todoRules {
	return todoRules{Title: t.Title, Description: deref(t.Description), Priority: string(t.Priority)}
}

func mapRepoErr(op string, err error) error {
	if errors.Is(err, repo.ErrNoRows) {
		return ErrNotFound
	}
	return storageErr(op, err)
}
