package tasklist

import (
	"context"
	"net/url"
	"reflect"
	"sync"
	"testing"
	"time"

	"taskboard/internal/service"
	"taskboard/internal/testutil"
)

func TestQuery_RoundTrip(t *testing.T) {
	for _, limit := range Limits {
		for _, f := range Filters {
			for _, page := range []int{1, 2, 7} {
				q := Query{Page: page, Limit: limit, Filter: f}
				got, err := ParseQueryString(q.Encode())
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != q {
					t.Errorf("round trip of %+v gave %+v", q, got)
				}
			}
		}
	}
}

func TestQuery_EncodeOmitsDefaults(t *testing.T) {
	tests := []struct {
		q        Query
		expected string
	}{
		{DefaultQuery(), ""},
		{Query{Page: 2, Limit: 5, Filter: FilterAssigned}, "page=2&limit=5&filter=assigned"},
		{Query{Page: 1, Limit: 5, Filter: FilterAll}, "limit=5"},
		{Query{Page: 3, Limit: 10, Filter: FilterCreated}, "page=3&filter=created"},
	}
	for _, tt := range tests {
		if got := tt.q.Encode(); got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, got)
		}
	}
	if got := (Query{Page: 2, Limit: 10, Filter: FilterAll}).String(); got != "?page=2" {
		t.Errorf("expected ?page=2, got %q", got)
	}
}

func TestParseQuery_InvalidFallsBack(t *testing.T) {
	v := url.Values{"page": {"-3"}, "limit": {"7"}, "filter": {"mine"}}
	if got := ParseQuery(v); got != DefaultQuery() {
		t.Errorf("expected defaults, got %+v", got)
	}
	got, err := ParseQueryString("?limit=2&page=4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (Query{Page: 4, Limit: 2, Filter: FilterAll}) {
		t.Errorf("unexpected query %+v", got)
	}
}

func TestPages(t *testing.T) {
	const E = Ellipsis
	tests := []struct {
		current, total int
		expected       []int
	}{
		{1, 0, nil},
		{1, 1, []int{1}},
		{1, 2, []int{1, 2}},
		{1, 5, []int{1, 2, 3, E, 5}},
		{3, 5, []int{1, 2, 3, 4, 5}},
		{1, 10, []int{1, 2, 3, E, 10}},
		{5, 10, []int{1, E, 3, 4, 5, 6, 7, E, 10}},
		{4, 10, []int{1, 2, 3, 4, 5, 6, E, 10}},
		{10, 10, []int{1, E, 8, 9, 10}},
		{7, 10, []int{1, E, 5, 6, 7, 8, 9, 10}},
		{15, 10, []int{1, E, 8, 9, 10}},
	}
	for _, tt := range tests {
		got := Pages(tt.current, tt.total)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Pages(%d, %d): expected %v, got %v", tt.current, tt.total, tt.expected, got)
		}
	}
}

func seedTasks(fake *testutil.FakeService, n int) {
	for i := 0; i < n; i++ {
		fake.AddTask(service.Task{Title: "task", CreatorID: 1})
	}
}

func TestList_PageLimitFilterScenario(t *testing.T) {
	fake := testutil.NewFakeService()
	seedTasks(fake, 12)
	loc := NewMemoryLocation("")
	l := NewList(fake, loc, DefaultQuery())
	ctx := context.Background()
	if err := l.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := l.SetFilter(ctx, FilterAssigned); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.SetLimit(ctx, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.SetPage(ctx, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := loc.Query(); got != "page=2&limit=5&filter=assigned" {
		t.Errorf("expected page=2&limit=5&filter=assigned, got %q", got)
	}
	if loc.HistoryLen() != 1 {
		t.Errorf("expected history to stay at 1 entry, got %d", loc.HistoryLen())
	}
	snap := l.Snapshot()
	if len(snap.Tasks) != 5 || snap.Total != 12 || snap.TotalPages != 3 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestList_FilterAndLimitResetPage(t *testing.T) {
	fake := testutil.NewFakeService()
	seedTasks(fake, 30)
	loc := NewMemoryLocation("")
	l := NewList(fake, loc, Query{Page: 3, Limit: 5, Filter: FilterAll})
	ctx := context.Background()

	if err := l.SetFilter(ctx, FilterCreated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.Query().Page; got != 1 {
		t.Errorf("filter change: expected page 1, got %d", got)
	}

	if err := l.SetPage(ctx, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.SetLimit(ctx, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.Query().Page; got != 1 {
		t.Errorf("limit change: expected page 1, got %d", got)
	}
	if got := loc.Query(); got != "limit=2&filter=created" {
		t.Errorf("unexpected location %q", got)
	}
}

func TestList_FilterOnFirstPageDoesNotFetch(t *testing.T) {
	fake := testutil.NewFakeService()
	seedTasks(fake, 3)
	l := NewList(fake, NewMemoryLocation(""), DefaultQuery())
	ctx := context.Background()
	if err := l.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := l.SetFilter(ctx, FilterCreated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := fake.CallCount("ListTasks"); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestList_ChangesBeforeFirstFetchAreRecorded(t *testing.T) {
	fake := testutil.NewFakeService()
	seedTasks(fake, 12)
	loc := NewMemoryLocation("")
	l := NewList(fake, loc, DefaultQuery())
	ctx := context.Background()

	if err := l.Apply(ctx, Query{Page: 3, Limit: 5, Filter: FilterAll}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.SetLimit(ctx, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := fake.CallCount("ListTasks"); n != 0 {
		t.Errorf("expected no fetch before Refresh, got %d", n)
	}
	if got := loc.Query(); got != "limit=2" {
		t.Errorf("expected limit=2, got %q", got)
	}

	if err := l.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap := l.Snapshot(); len(snap.Tasks) != 2 || snap.Query.Page != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestList_InvalidChangesRejected(t *testing.T) {
	l := NewList(testutil.NewFakeService(), NewMemoryLocation(""), DefaultQuery())
	ctx := context.Background()
	if err := l.SetLimit(ctx, 3); err == nil {
		t.Error("expected error for limit 3")
	}
	if err := l.SetPage(ctx, 0); err == nil {
		t.Error("expected error for page 0")
	}
	if err := l.SetFilter(ctx, Filter("mine")); err == nil {
		t.Error("expected error for unknown filter")
	}
	if l.Query() != DefaultQuery() {
		t.Errorf("query should be unchanged, got %+v", l.Query())
	}
}

func TestList_FilteringKeepsTotals(t *testing.T) {
	fake := testutil.NewFakeService()
	me, other := 1, 2
	fake.AddTask(service.Task{Title: "mine", CreatorID: me, Status: service.StatusDone})
	fake.AddTask(service.Task{Title: "for me", CreatorID: other, AssigneeID: &me})
	fake.AddTask(service.Task{Title: "self assigned", CreatorID: me, AssigneeID: &me, Status: service.StatusInProgress})
	fake.AddTask(service.Task{Title: "theirs", CreatorID: other})

	l := NewList(fake, NewMemoryLocation(""), DefaultQuery())
	ctx := context.Background()
	if err := l.Refresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sess := service.Session{UserID: me}

	expect := map[Filter][]string{
		FilterAll:      {"mine", "for me", "self assigned", "theirs"},
		FilterCreated:  {"mine", "self assigned"},
		FilterAssigned: {"for me"},
	}
	for _, f := range Filters {
		if err := l.SetFilter(ctx, f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var titles []string
		for _, task := range l.Visible(sess) {
			titles = append(titles, task.Title)
		}
		if !reflect.DeepEqual(titles, expect[f]) {
			t.Errorf("filter %s: expected %v, got %v", f, expect[f], titles)
		}
		if snap := l.Snapshot(); snap.Total != 4 || snap.TotalPages != 1 {
			t.Errorf("filter %s changed totals: %+v", f, snap)
		}
	}

	counts := Counts(l.Snapshot().Tasks)
	if counts != (StatusCounts{Total: 4, Todo: 2, InProgress: 1, Done: 1}) {
		t.Errorf("unexpected counts %+v", counts)
	}
}

// gatedFetcher blocks the first call until released.
type gatedFetcher struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (g *gatedFetcher) ListTasks(ctx context.Context, page, limit int) (service.TaskPage, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()
	if first {
		close(g.started)
		<-g.release
		return service.TaskPage{Tasks: []service.Task{{ID: 1, Title: "stale"}}, Total: 1, TotalPages: 1}, nil
	}
	return service.TaskPage{Tasks: []service.Task{{ID: 2, Title: "fresh"}}, Total: 6, TotalPages: 2}, nil
}

func TestList_StaleResponseDropped(t *testing.T) {
	g := &gatedFetcher{started: make(chan struct{}), release: make(chan struct{})}
	l := NewList(g, NewMemoryLocation(""), Query{Page: 1, Limit: 5, Filter: FilterAll})
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() { errc <- l.Refresh(ctx) }()
	<-g.started

	if err := l.SetPage(ctx, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(g.release)
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stale fetch did not return")
	}

	snap := l.Snapshot()
	if len(snap.Tasks) != 1 || snap.Tasks[0].Title != "fresh" || snap.Total != 6 {
		t.Errorf("stale response was applied: %+v", snap)
	}
}
