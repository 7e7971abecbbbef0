package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
)

// TokenFileStore persists the bearer token as an oauth2.Token in token.json.
type TokenFileStore struct {
	cfg *Config
}

// Tokens returns the token store backed by this config directory.
func (c *Config) Tokens() *TokenFileStore {
	return &TokenFileStore{cfg: c}
}

// Load returns the stored access token, or "" if none is stored.
func (s *TokenFileStore) Load() (string, error) {
	data, err := os.ReadFile(s.cfg.TokenPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", TokenFile, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return "", fmt.Errorf("invalid %s: %w", TokenFile, err)
	}
	return token.AccessToken, nil
}

// Save stores the access token with mode 0600.
func (s *TokenFileStore) Save(accessToken string) error {
	if err := s.cfg.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.cfg.TokenPath(), data, 0600)
}

// Clear removes the stored token. A missing file is not an error.
func (s *TokenFileStore) Clear() error {
	if err := s.cfg.RemoveToken(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
