// Package tasklist keeps the paginated task list and its query string in sync.
package tasklist

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Filter selects which tasks of the fetched page are shown.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterCreated  Filter = "created"
	FilterAssigned Filter = "assigned"
)

// Filters lists the valid filters.
var Filters = []Filter{FilterAll, FilterCreated, FilterAssigned}

// Valid reports whether f is a known filter.
func (f Filter) Valid() bool {
	return slices.Contains(Filters, f)
}

// Limits lists the allowed page sizes.
var Limits = []int{1, 2, 5, 10}

// Defaults, omitted from the query string.
const (
	DefaultPage   = 1
	DefaultLimit  = 10
	DefaultFilter = FilterAll
)

// Query is the page state mirrored into the query string.
type Query struct {
	Page   int
	Limit  int
	Filter Filter
}

// DefaultQuery returns page 1, limit 10, all tasks.
func DefaultQuery() Query {
	return Query{Page: DefaultPage, Limit: DefaultLimit, Filter: DefaultFilter}
}

// Valid reports whether every field holds an allowed value.
func (q Query) Valid() bool {
	return q.Page >= 1 && slices.Contains(Limits, q.Limit) && q.Filter.Valid()
}

// ParseQuery reads page, limit and filter. Missing or invalid values fall
// back to their defaults.
func ParseQuery(v url.Values) Query {
	q := DefaultQuery()
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n >= 1 {
		q.Page = n
	}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil && slices.Contains(Limits, n) {
		q.Limit = n
	}
	if f := Filter(v.Get("filter")); f.Valid() {
		q.Filter = f
	}
	return q
}

// ParseQueryString parses a raw query string, with or without a leading "?".
func ParseQueryString(s string) (Query, error) {
	v, err := url.ParseQuery(strings.TrimPrefix(s, "?"))
	if err != nil {
		return Query{}, fmt.Errorf("invalid query %q: %w", s, err)
	}
	return ParseQuery(v), nil
}

// Encode returns the canonical query string without the leading "?".
// Defaults are omitted and keys appear in the order page, limit, filter.
func (q Query) Encode() string {
	var parts []string
	if q.Page != DefaultPage {
		parts = append(parts, "page="+strconv.Itoa(q.Page))
	}
	if q.Limit != DefaultLimit {
		parts = append(parts, "limit="+strconv.Itoa(q.Limit))
	}
	if q.Filter != DefaultFilter {
		parts = append(parts, "filter="+url.QueryEscape(string(q.Filter)))
	}
	return strings.Join(parts, "&")
}

// String returns the query string with its "?" or "" for the defaults.
func (q Query) String() string {
	if s := q.Encode(); s != "" {
		return "?" + s
	}
	return ""
}
