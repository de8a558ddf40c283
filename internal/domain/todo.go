package domain

import "time"

// Priority is the stored urgency of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the accepted values in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is one of low, medium, high.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Level is the display weight of p: high 3, medium 2, low 1.
// Unknown values weigh like medium.
func (p Priority) Level() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// Todo is the only entity of the app. It has no relations.
type Todo struct {
	ID          int64
	Title       string
	Description *string
	Completed   bool
	Priority    Priority
	DueDate     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOverdue reports whether the todo is pending and its due date has passed.
func (t Todo) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Completed
}

// IsDueToday reports whether the todo is pending and due on now's calendar day,
// in now's location.
func (t Todo) IsDueToday(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	y1, m1, d1 := t.DueDate.In(now.Location()).Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// PriorityLevel is the display weight of the todo's priority.
func (t Todo) PriorityLevel() int {
	return t.Priority.Level()
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
