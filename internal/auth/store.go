// Package auth owns the session: the bearer token, its persistence and the
// authentication state exposed to the rest of the client.
package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"taskboard/internal/service"
)

// ErrNoToken is returned by Store.Token when no token is held.
var ErrNoToken = errors.New("no token")

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Store holds the one session of this client. It is the token source of
// the API client.
type Store struct {
	mu      sync.Mutex
	tokens  TokenStore
	loaded  bool
	token   string
	session *service.Session
}

var _ oauth2.TokenSource = (*Store)(nil)

// NewStore returns a store backed by tokens.
func NewStore(tokens TokenStore) *Store {
	return &Store{tokens: tokens}
}

// Token returns the held token, loading it from disk on first use.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	if s.token == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{
		AccessToken: s.token,
		TokenType:   "Bearer",
		Expiry:      Expiry(s.token),
	}, nil
}

// Session returns the hydrated session, if any.
func (s *Store) Session() (service.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return service.Session{}, false
	}
	return *s.session, true
}

// SetSession replaces the session and persists its token.
func (s *Store) SetSession(sess service.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tokens.Save(sess.Token); err != nil {
		return err
	}
	s.loaded = true
	s.token = sess.Token
	s.session = &sess
	return nil
}

// Clear drops the session and the persisted token.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.token = ""
	s.session = nil
	return s.tokens.Clear()
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	token, err := s.tokens.Load()
	if err != nil {
		return err
	}
	s.loaded = true
	s.token = token
	return nil
}

// Expiry reads the exp claim of a JWT bearer token. The signature is not
// verified; the backend does that. Opaque tokens have no expiry.
func Expiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
