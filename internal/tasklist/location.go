package tasklist

import "sync"

// Location receives the canonical query string after every change.
// Replace overwrites the current entry and never adds history.
type Location interface {
	Replace(query string)
}

// MemoryLocation is a Location held in memory.
type MemoryLocation struct {
	mu      sync.Mutex
	query   string
	history int
}

// NewMemoryLocation returns a location with one history entry.
func NewMemoryLocation(query string) *MemoryLocation {
	return &MemoryLocation{query: query, history: 1}
}

// Replace implements Location.
func (m *MemoryLocation) Replace(query string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.query = query
}

// Query returns the current query string.
func (m *MemoryLocation) Query() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query
}

// HistoryLen returns the number of history entries.
func (m *MemoryLocation) HistoryLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history
}
