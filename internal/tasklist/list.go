package tasklist

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"taskboard/internal/service"
)

// Fetcher loads one page of tasks.
type Fetcher interface {
	ListTasks(ctx context.Context, page, limit int) (service.TaskPage, error)
}

// Snapshot is a consistent view of the list.
type Snapshot struct {
	Query      Query
	Tasks      []service.Task
	Total      int
	TotalPages int
	Loaded     bool
}

// List holds the current page of tasks. Totals always describe the whole
// collection as reported by the backend; filtering only narrows Visible.
type List struct {
	svc Fetcher
	loc Location

	mu         sync.Mutex
	query      Query
	tasks      []service.Task
	total      int
	totalPages int
	loaded     bool
	seq        uint64
}

// NewList returns a list for q and writes its canonical form to loc.
// Invalid fields of q are replaced by defaults.
func NewList(svc Fetcher, loc Location, q Query) *List {
	q = ParseQuery(valuesOf(q))
	l := &List{svc: svc, loc: loc, query: q}
	l.loc.Replace(q.Encode())
	return l
}

// Query returns the current query.
func (l *List) Query() Query {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.query
}

// Snapshot returns the current state.
func (l *List) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		Query:      l.query,
		Tasks:      slices.Clone(l.tasks),
		Total:      l.total,
		TotalPages: l.totalPages,
		Loaded:     l.loaded,
	}
}

// SetPage moves to page and fetches it.
func (l *List) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("invalid page: %d", page)
	}
	if !l.update(func(q *Query) { q.Page = page }) {
		return nil
	}
	return l.refetch(ctx)
}

// SetLimit changes the page size, goes back to page 1 and fetches.
func (l *List) SetLimit(ctx context.Context, limit int) error {
	if !slices.Contains(Limits, limit) {
		return fmt.Errorf("invalid limit: %d (allowed: 1, 2, 5, 10)", limit)
	}
	if !l.update(func(q *Query) { q.Limit = limit; q.Page = 1 }) {
		return nil
	}
	return l.refetch(ctx)
}

// SetFilter changes the filter and goes back to page 1. Filtering happens
// on the fetched page, so a fetch is only needed when the page changed.
func (l *List) SetFilter(ctx context.Context, f Filter) error {
	if !f.Valid() {
		return fmt.Errorf("invalid filter: %s (allowed: all, created, assigned)", f)
	}
	l.mu.Lock()
	pageChanged := l.query.Page != 1
	l.mu.Unlock()
	if !l.update(func(q *Query) { q.Filter = f; q.Page = 1 }) || !pageChanged {
		return nil
	}
	return l.refetch(ctx)
}

// Apply replaces the whole query, fetching when page or limit changed.
func (l *List) Apply(ctx context.Context, q Query) error {
	if !q.Valid() {
		return fmt.Errorf("invalid query: %+v", q)
	}
	l.mu.Lock()
	moved := l.query.Page != q.Page || l.query.Limit != q.Limit
	l.mu.Unlock()
	l.update(func(cur *Query) { *cur = q })
	if !moved {
		return nil
	}
	return l.refetch(ctx)
}

// refetch fetches the current page once the list has been fetched at
// least once. Before the first Refresh, changes are only recorded.
func (l *List) refetch(ctx context.Context) error {
	l.mu.Lock()
	started := l.seq > 0
	l.mu.Unlock()
	if !started {
		return nil
	}
	return l.Refresh(ctx)
}

// update applies fn and writes the query back to the location. It reports
// whether the query changed.
func (l *List) update(fn func(*Query)) bool {
	l.mu.Lock()
	before := l.query
	fn(&l.query)
	after := l.query
	l.mu.Unlock()
	if before == after {
		return false
	}
	l.loc.Replace(after.Encode())
	return true
}

// Refresh fetches the current page. A response is applied only if no
// newer fetch was issued in the meantime.
func (l *List) Refresh(ctx context.Context) error {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	q := l.query
	l.mu.Unlock()

	page, err := l.svc.ListTasks(ctx, q.Page, q.Limit)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return nil
	}
	if err != nil {
		return err
	}
	l.tasks = page.Tasks
	l.total = page.Total
	l.totalPages = page.TotalPages
	l.loaded = true
	return nil
}

// Visible returns the fetched tasks that pass the filter for sess.
func (l *List) Visible(sess service.Session) []service.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	return FilterTasks(l.tasks, l.query.Filter, sess.UserID)
}

// FilterTasks applies f for the user userID. Assigned means assigned to
// the user by someone else.
func FilterTasks(tasks []service.Task, f Filter, userID int) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		switch f {
		case FilterCreated:
			if t.CreatorID != userID {
				continue
			}
		case FilterAssigned:
			if !t.AssignedTo(userID) || t.CreatorID == userID {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// StatusCounts counts tasks per status.
type StatusCounts struct {
	Total      int
	Todo       int
	InProgress int
	Done       int
}

// Counts returns per-status counts of tasks.
func Counts(tasks []service.Task) StatusCounts {
	c := StatusCounts{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case service.StatusTodo:
			c.Todo++
		case service.StatusInProgress:
			c.InProgress++
		case service.StatusDone:
			c.Done++
		}
	}
	return c
}

func valuesOf(q Query) url.Values {
	return url.Values{
		"page":   {strconv.Itoa(q.Page)},
		"limit":  {strconv.Itoa(q.Limit)},
		"filter": {string(q.Filter)},
	}
}
