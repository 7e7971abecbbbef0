package testutil

import "sync"

// MemoryTokens is an in-memory auth.TokenStore.
type MemoryTokens struct {
	mu    sync.Mutex
	token string

	LoadErr error
	SaveErr error
}

// NewMemoryTokens returns a store holding token ("" for none).
func NewMemoryTokens(token string) *MemoryTokens {
	return &MemoryTokens{token: token}
}

// Load implements auth.TokenStore.
func (m *MemoryTokens) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return "", m.LoadErr
	}
	return m.token, nil
}

// Save implements auth.TokenStore.
func (m *MemoryTokens) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.token = token
	return nil
}

// Clear implements auth.TokenStore.
func (m *MemoryTokens) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// Stored returns the persisted token.
func (m *MemoryTokens) Stored() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}
