package query

import (
	"strings"
	"time"

	dom "todoboard/internal/domain"

	sq "github.com/Masterminds/squirrel"
)

// Cond is one conjunct of a Plan's predicate. It renders to SQL and
// evaluates in process with the same meaning.
type Cond interface {
	sq.Sqlizer
	Match(t dom.Todo) bool
}

// CompletedIs selects rows whose completed flag equals v.
func CompletedIs(v bool) Cond { return completedIs(v) }

type completedIs bool

func (c completedIs) ToSql() (string, []interface{}, error) {
	return sq.Eq{"completed": bool(c)}.ToSql()
}

func (c completedIs) Match(t dom.Todo) bool { return t.Completed == bool(c) }

// DueBefore selects rows with a due date strictly before at. Rows without a
// due date never match.
func DueBefore(at time.Time) Cond { return dueBefore{at: at} }

type dueBefore struct{ at time.Time }

func (c dueBefore) ToSql() (string, []interface{}, error) {
	return sq.Lt{"due_date": c.at}.ToSql()
}

func (c dueBefore) Match(t dom.Todo) bool {
	return t.DueDate != nil && t.DueDate.Before(c.at)
}

// DueOn selects rows due on day's calendar day, in day's location.
func DueOn(day time.Time) Cond {
	from := dom.StartOfDay(day)
	return dueBetween{from: from, to: from.AddDate(0, 0, 1)}
}

// dueBetween is the half-open range [from, to).
type dueBetween struct{ from, to time.Time }

func (c dueBetween) ToSql() (string, []interface{}, error) {
	return sq.And{
		sq.GtOrEq{"due_date": c.from},
		sq.Lt{"due_date": c.to},
	}.ToSql()
}

func (c dueBetween) Match(t dom.Todo) bool {
	if t.DueDate == nil {
		return false
	}
	return !t.DueDate.Before(c.from) && t.DueDate.Before(c.to)
}

// PriorityIs is an exact match on the stored priority.
func PriorityIs(p dom.Priority) Cond { return priorityIs(p) }

type priorityIs dom.Priority

func (c priorityIs) ToSql() (string, []interface{}, error) {
	return sq.Eq{"priority": string(c)}.ToSql()
}

func (c priorityIs) Match(t dom.Todo) bool { return t.Priority == dom.Priority(c) }

// TextContains matches text as a case-insensitive substring of the title or
// the description.
func TextContains(text string) Cond { return textContains(text) }

type textContains string

func (c textContains) ToSql() (string, []interface{}, error) {
	pattern := "%" + escapeLike(string(c)) + "%"
	return sq.Or{
		sq.ILike{"title": pattern},
		sq.ILike{"description": pattern},
	}.ToSql()
}

func (c textContains) Match(t dom.Todo) bool {
	needle := strings.ToLower(string(c))
	if strings.Contains(strings.ToLower(t.Title), needle) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), needle)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern (backslash is the
// default escape character in Postgres).
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
