package repo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	dom "todoboard/internal/domain"
	"todoboard/internal/query"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoRows is returned when the referenced todo does not exist.
var ErrNoRows = errors.New("repo: no rows")

// MissingIDsError is returned by bulk operations when some ids do not exist.
// Nothing has been changed when it is returned.
type MissingIDsError struct {
	IDs []int64
}

func (e *MissingIDsError) Error() string {
	parts := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "repo: missing ids " + strings.Join(parts, ",")
}

// SQLState returns the Postgres error code carried by err, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

type TodoRepo interface {
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	GetByID(ctx context.Context, id int64) (dom.Todo, error)
	List(ctx context.Context, plan query.Plan, limit, offset int) ([]dom.Todo, error)
	Count(ctx context.Context, where []query.Cond) (int, error)
	Update(ctx context.Context, id int64, p TodoPatch) (dom.Todo, error)
	Toggle(ctx context.Context, id int64) (dom.Todo, error)
	Delete(ctx context.Context, id int64) error
	SetCompletedMany(ctx context.Context, ids []int64, completed bool) (int64, error)
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
}

// TodoPatch names the columns an update writes. Nil pointers and unset
// flags leave the stored value alone.
type TodoPatch struct {
	Title     *string
	Priority  *dom.Priority
	Completed *bool

	SetDescription bool
	Description    *string // nil clears
	SetDueDate     bool
	DueDate        *time.Time // nil clears
}

func (p TodoPatch) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Priority != nil {
		cols["priority"] = string(*p.Priority)
	}
	if p.Completed != nil {
		cols["completed"] = *p.Completed
	}
	if p.SetDescription {
		cols["description"] = p.Description
	}
	if p.SetDueDate {
		cols["due_date"] = p.DueDate
	}
	return cols
}

func (p TodoPatch) apply(t *dom.Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.SetDescription {
		t.Description = p.Description
	}
	if p.SetDueDate {
		t.DueDate = p.DueDate
	}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var todoColumns = []string{
	"id", "title", "description", "completed", "priority", "due_date", "created_at", "updated_at",
}

const returningTodo = "RETURNING id, title, description, completed, priority, due_date, created_at, updated_at"

func scanTodo(row pgx.Row) (dom.Todo, error) {
	var t dom.Todo
	var priority string
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &priority,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	t.Priority = dom.Priority(priority)
	return t, err
}

func noRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}
	return err
}

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	stmt := `
		INSERT INTO todos (title, description, completed, priority, due_date)
		VALUES ($1, $2, $3, $4, $5)
		` + returningTodo
	out, err := scanTodo(r.db.QueryRow(ctx, stmt,
		t.Title, t.Description, t.Completed, string(t.Priority), t.DueDate))
	if err != nil {
		return dom.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return out, nil
}

func (r *PGTodoRepo) GetByID(ctx context.Context, id int64) (dom.Todo, error) {
	sql, args, err := psql.Select(todoColumns...).From("todos").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return dom.Todo{}, err
	}
	t, err := scanTodo(r.db.QueryRow(ctx, sql, args...))
	return t, noRows(err)
}

func (r *PGTodoRepo) List(ctx context.Context, plan query.Plan, limit, offset int) ([]dom.Todo, error) {
	if offset < 0 {
		return nil, fmt.Errorf("repo: negative offset %d", offset)
	}
	b := psql.Select(todoColumns...).From("todos")
	if pred := plan.Predicate(); pred != nil {
		b = b.Where(pred)
	}
	b = b.OrderBy(plan.OrderBy()...)
	if limit > 0 {
		b = b.Limit(uint64(limit)).Offset(uint64(offset))
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (dom.Todo, error) {
		return scanTodo(row)
	})
}

func (r *PGTodoRepo) Count(ctx context.Context, where []query.Cond) (int, error) {
	b := psql.Select("COUNT(*)").From("todos")
	if pred := query.And(where); pred != nil {
		b = b.Where(pred)
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count todos: %w", err)
	}
	return n, nil
}

// Update writes only the columns named by p, in one statement, so concurrent
// writes to other columns survive.
func (r *PGTodoRepo) Update(ctx context.Context, id int64, p TodoPatch) (dom.Todo, error) {
	sql, args, err := psql.Update("todos").
		SetMap(p.columns()).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix(returningTodo).
		ToSql()
	if err != nil {
		return dom.Todo{}, fmt.Errorf("build update query: %w", err)
	}
	out, err := scanTodo(r.db.QueryRow(ctx, sql, args...))
	return out, noRows(err)
}

func (r *PGTodoRepo) Toggle(ctx context.Context, id int64) (dom.Todo, error) {
	stmt := `
		UPDATE todos SET completed = NOT completed, updated_at = NOW()
		WHERE id = $1
		` + returningTodo
	t, err := scanTodo(r.db.QueryRow(ctx, stmt, id))
	return t, noRows(err)
}

func (r *PGTodoRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func (r *PGTodoRepo) SetCompletedMany(ctx context.Context, ids []int64, completed bool) (int64, error) {
	var n int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockAll(ctx, tx, ids); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`UPDATE todos SET completed = $2, updated_at = NOW() WHERE id = ANY($1)`, ids, completed)
		if err != nil {
			return fmt.Errorf("bulk update: %w", err)
		}
		n = tag.RowsAffected()
		return nil
	})
	return n, err
}

func (r *PGTodoRepo) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockAll(ctx, tx, ids); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM todos WHERE id = ANY($1)`, ids)
		if err != nil {
			return fmt.Errorf("bulk delete: %w", err)
		}
		n = tag.RowsAffected()
		return nil
	})
	return n, err
}

// lockAll locks the rows for ids and fails with MissingIDsError unless all exist.
func lockAll(ctx context.Context, tx pgx.Tx, ids []int64) error {
	rows, err := tx.Query(ctx, `SELECT id FROM todos WHERE id = ANY($1) FOR UPDATE`, ids)
	if err != nil {
		return fmt.Errorf("lock todos: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return fmt.Errorf("lock todos: %w", err)
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		return &MissingIDsError{IDs: missing}
	}
	return nil
}

// missingIDs returns the members of want absent from have, in want's order.
func missingIDs(want, have []int64) []int64 {
	var missing []int64
	for _, id := range want {
		if !slices.Contains(have, id) {
			missing = append(missing, id)
		}
	}
	return missing
}
