// Package seed fills a store with demo todos.
package seed

import (
	"time"

	dom "todoboard/internal/domain"

	"github.com/brianvoe/gofakeit/v7"
)

// State adjusts a generated todo.
type State func(f *Factory, t *dom.Todo)

// Factory generates random todos relative to a fixed instant.
type Factory struct {
	faker *gofakeit.Faker
	now   time.Time
}

// NewFactory returns a Factory; the same seed yields the same todos.
func NewFactory(seed uint64, now time.Time) *Factory {
	return &Factory{faker: gofakeit.New(seed), now: now}
}

// Todo returns a random todo with states applied in order.
func (f *Factory) Todo(states ...State) dom.Todo {
	t := dom.Todo{
		Title:     f.faker.Sentence(3),
		Completed: f.chance(0.2),
		Priority:  dom.Priority(f.faker.RandomString([]string{"low", "medium", "high"})),
	}
	if f.chance(0.7) {
		d := f.faker.Paragraph(1, 3, 12, " ")
		t.Description = &d
	}
	if f.chance(0.6) {
		due := f.faker.DateRange(f.now, f.now.AddDate(0, 0, 30))
		t.DueDate = &due
	}
	for _, st := range states {
		st(f, &t)
	}
	return t
}

// Many returns n todos with the same states.
func (f *Factory) Many(n int, states ...State) []dom.Todo {
	out := make([]dom.Todo, n)
	for i := range out {
		out[i] = f.Todo(states...)
	}
	return out
}

func (f *Factory) chance(p float64) bool {
	return f.faker.Float64() < p
}

func Completed(_ *Factory, t *dom.Todo) {
	t.Completed = true
}

func Pending(_ *Factory, t *dom.Todo) {
	t.Completed = false
}

func HighPriority(_ *Factory, t *dom.Todo) {
	t.Priority = dom.PriorityHigh
}

// Overdue puts the due date one to seven days in the past.
func Overdue(f *Factory, t *dom.Todo) {
	due := f.faker.DateRange(f.now.AddDate(0, 0, -7), f.now.AddDate(0, 0, -1))
	t.DueDate = &due
	t.Completed = false
}

// DueToday puts the due date at a whole hour of the current day.
func DueToday(f *Factory, t *dom.Todo) {
	due := dom.StartOfDay(f.now).Add(time.Duration(f.faker.Number(1, 23)) * time.Hour)
	t.DueDate = &due
	t.Completed = false
}
