package query

import (
	"cmp"
	"strings"
	"time"

	dom "todoboard/internal/domain"
)

// PriorityRank is the sort key for priorities: high 1, medium 2, low 3,
// anything else 4. It runs opposite to Priority.Level.
func PriorityRank(p dom.Priority) int {
	switch p {
	case dom.PriorityHigh:
		return 1
	case dom.PriorityMedium:
		return 2
	case dom.PriorityLow:
		return 3
	default:
		return 4
	}
}

// priorityRankSQL must stay in step with PriorityRank.
const priorityRankSQL = "CASE priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 ELSE 4 END"

type column int

const (
	colCompleted column = iota
	colPriorityRank
	colDueDate
	colCreatedAt
	colTitle
	colID
)

var columnSQL = map[column]string{
	colCompleted:    "completed",
	colPriorityRank: priorityRankSQL,
	colDueDate:      "due_date",
	colCreatedAt:    "created_at",
	colTitle:        `title COLLATE "C"`, // byte order, as strings.Compare
	colID:           "id",
}

// Order is one key of an ORDER BY list.
type Order struct {
	col  column
	Desc bool
}

// Clause renders the key for squirrel's OrderBy.
func (o Order) Clause() string {
	dir := " ASC"
	if o.Desc {
		dir = " DESC"
	}
	return columnSQL[o.col] + dir
}

// Compare orders a and b the way Postgres orders the rendered clause:
// NULL sorts after every value ascending and before every value descending.
func (o Order) Compare(a, b dom.Todo) int {
	c := o.compareAsc(a, b)
	if o.Desc {
		return -c
	}
	return c
}

func (o Order) compareAsc(a, b dom.Todo) int {
	switch o.col {
	case colCompleted:
		return compareBool(a.Completed, b.Completed)
	case colPriorityRank:
		return cmp.Compare(PriorityRank(a.Priority), PriorityRank(b.Priority))
	case colDueDate:
		return compareNullableTime(a.DueDate, b.DueDate)
	case colCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case colTitle:
		return strings.Compare(a.Title, b.Title)
	case colID:
		return cmp.Compare(a.ID, b.ID)
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareNullableTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
