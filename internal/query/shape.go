// Package query turns list filters and a sort key into a Plan: a conjunction
// of conditions and an ordered key list. Plans render to SQL for the Postgres
// store and evaluate directly against domain values for the in-memory store.
package query

import (
	"strings"
	"time"

	dom "todoboard/internal/domain"

	sq "github.com/Masterminds/squirrel"
)

// Status narrows a listing by completion and due date.
type Status string

const (
	StatusAny       Status = ""
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusOverdue   Status = "overdue"
	StatusDueToday  Status = "due_today"
)

// ParseStatus maps unknown or blank input to StatusAny.
func ParseStatus(s string) Status {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusCompleted, StatusPending, StatusOverdue, StatusDueToday:
		return st
	}
	return StatusAny
}

// Sort names an ordering of the listing.
type Sort string

const (
	SortDefault  Sort = "default"
	SortTitle    Sort = "title"
	SortPriority Sort = "priority"
	SortDueDate  Sort = "due_date"
	SortCreated  Sort = "created"
)

// ParseSort maps unknown or blank input to SortDefault.
func ParseSort(s string) Sort {
	switch st := Sort(strings.TrimSpace(s)); st {
	case SortTitle, SortPriority, SortDueDate, SortCreated:
		return st
	}
	return SortDefault
}

// Filters are the optional list constraints. Zero values mean no constraint.
type Filters struct {
	Status   Status
	Priority dom.Priority
	Search   string
}

// Plan is a fully specified query: Where is ANDed, Order is applied in turn.
type Plan struct {
	Where []Cond
	Order []Order
}

// Shape builds the plan for f and s. now fixes "overdue" and "today"; its
// location decides where a calendar day starts.
func Shape(f Filters, s Sort, now time.Time) Plan {
	var where []Cond
	where = append(where, StatusConds(f.Status, now)...)
	if p := dom.Priority(strings.TrimSpace(string(f.Priority))); p != "" {
		where = append(where, PriorityIs(p))
	}
	if text := strings.TrimSpace(f.Search); text != "" {
		where = append(where, TextContains(text))
	}
	return Plan{Where: where, Order: SortOrder(s)}
}

// StatusConds returns the conditions for one status value.
func StatusConds(st Status, now time.Time) []Cond {
	switch st {
	case StatusCompleted:
		return []Cond{CompletedIs(true)}
	case StatusPending:
		return []Cond{CompletedIs(false)}
	case StatusOverdue:
		return []Cond{DueBefore(now), CompletedIs(false)}
	case StatusDueToday:
		return []Cond{DueOn(now), CompletedIs(false)}
	default:
		return nil
	}
}

// SortOrder returns the key list for s. Each list ends with an id tie-break
// so equal rows keep insertion order (reversed for newest-first listings).
func SortOrder(s Sort) []Order {
	switch s {
	case SortTitle:
		return []Order{{col: colTitle}, {col: colID}}
	case SortPriority:
		return []Order{{col: colPriorityRank}, {col: colID}}
	case SortDueDate:
		return []Order{{col: colDueDate}, {col: colID}}
	case SortCreated:
		return []Order{{col: colCreatedAt, Desc: true}, {col: colID, Desc: true}}
	default:
		return []Order{
			{col: colCompleted},
			{col: colPriorityRank},
			{col: colDueDate},
			{col: colCreatedAt, Desc: true},
			{col: colID, Desc: true},
		}
	}
}

// Predicate renders Where for squirrel. It is nil when there is no condition.
func (p Plan) Predicate() sq.Sqlizer {
	return And(p.Where)
}

// And joins conds for squirrel; nil when conds is empty.
func And(conds []Cond) sq.Sqlizer {
	if len(conds) == 0 {
		return nil
	}
	and := make(sq.And, len(conds))
	for i, c := range conds {
		and[i] = c
	}
	return and
}

// OrderBy renders Order for squirrel's OrderBy.
func (p Plan) OrderBy() []string {
	out := make([]string, len(p.Order))
	for i, o := range p.Order {
		out[i] = o.Clause()
	}
	return out
}

// Match reports whether t satisfies every condition.
func (p Plan) Match(t dom.Todo) bool {
	return MatchAll(p.Where, t)
}

// MatchAll is true when t satisfies each of conds; true for none.
func MatchAll(conds []Cond, t dom.Todo) bool {
	for _, c := range conds {
		if !c.Match(t) {
			return false
		}
	}
	return true
}

// Compare orders a and b by the plan's keys. It is a valid comparison
// function for slices.SortStableFunc.
func (p Plan) Compare(a, b dom.Todo) int {
	for _, o := range p.Order {
		if c := o.Compare(a, b); c != 0 {
			return c
		}
	}
	return 0
}
