package service

import (
	"context"
	"time"

	dom "todoboard/internal/domain"
	"todoboard/internal/query"
)

// Stats are dashboard counts over the whole table, independent of any
// listing filter.
type Stats struct {
	Total        int
	Completed    int
	Pending      int
	Overdue      int
	DueToday     int
	HighPriority int
}

// Stats runs six count queries. Concurrent callers share one computation;
// nothing is kept once it returns. The shared run ignores the first caller's
// cancellation so one dropped client does not fail the others.
// TODO: switch to counters maintained on write once a full scan per list view
// shows up in latency.
func (s *TodoService) Stats(ctx context.Context) (Stats, error) {
	v, err, _ := s.sf.Do("stats", func() (interface{}, error) {
		return s.computeStats(context.WithoutCancel(ctx), s.Now())
	})
	if err != nil {
		return Stats{}, err
	}
	return v.(Stats), nil
}

func (s *TodoService) computeStats(ctx context.Context, now time.Time) (Stats, error) {
	var st Stats
	counters := []struct {
		name  string
		dst   *int
		where []query.Cond
	}{
		{"total", &st.Total, nil},
		{"completed", &st.Completed, query.StatusConds(query.StatusCompleted, now)},
		{"pending", &st.Pending, query.StatusConds(query.StatusPending, now)},
		{"overdue", &st.Overdue, query.StatusConds(query.StatusOverdue, now)},
		{"due_today", &st.DueToday, query.StatusConds(query.StatusDueToday, now)},
		{"high_priority", &st.HighPriority, []query.Cond{query.PriorityIs(dom.PriorityHigh), query.CompletedIs(false)}},
	}
	for _, c := range counters {
		n, err := s.repo.Count(ctx, c.where)
		if err != nil {
			return Stats{}, storageErr("count "+c.name, err)
		}
		*c.dst = n
	}
	return st, nil
}
