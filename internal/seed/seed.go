package seed

import (
	"context"
	"fmt"

	dom "todoboard/internal/domain"
	"todoboard/internal/repo"
)

// Run inserts three fixed todos followed by random batches covering every
// listing status. It returns the number of rows written.
func Run(ctx context.Context, r repo.TodoRepo, f *Factory) (int, error) {
	inWeek := f.now.AddDate(0, 0, 7)
	inThreeDays := f.now.AddDate(0, 0, 3)
	todos := []dom.Todo{
		{
			Title:       "Learn the board filters",
			Description: ptr("Try every status and sort combination"),
			Priority:    dom.PriorityHigh,
			DueDate:     &inWeek,
		},
		{
			Title:       "Set up the project config",
			Description: ptr("Copy .env.example and point PG_DSN at a database"),
			Priority:    dom.PriorityMedium,
			Completed:   true,
		},
		{
			Title:       "Write reusable request helpers",
			Description: ptr("Share the JSON client between pages"),
			Priority:    dom.PriorityMedium,
			DueDate:     &inThreeDays,
		},
	}
	todos = append(todos, f.Many(15)...)
	todos = append(todos, f.Many(3, Overdue)...)
	todos = append(todos, f.Many(2, DueToday)...)
	todos = append(todos, f.Many(5, Completed)...)
	todos = append(todos, f.Many(3, HighPriority)...)

	for i, t := range todos {
		if _, err := r.Create(ctx, t); err != nil {
			return i, fmt.Errorf("seed todo %d: %w", i, err)
		}
	}
	return len(todos), nil
}

func ptr(s string) *string { return &s }
