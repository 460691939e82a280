package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"eyestock/app/config"

	"github.com/samber/do"
)

const fileName = "session.json"

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Store keeps the access and refresh tokens in memory and mirrors them to <data_dir>/session.json.
// Both tokens are always written and removed together.
type Store struct {
	path string

	mu     sync.RWMutex
	tokens Tokens
}

func New(di *do.Injector) (*Store, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return Open(cfg.Auth.DataDir)
}

// Open creates the data directory if needed and loads any persisted tokens.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	s := &Store{
		path: filepath.Join(dataDir, fileName),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Load rereads the session file. A missing file leaves the store empty.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.tokens = Tokens{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}

	var tokens Tokens
	if err = json.Unmarshal(data, &tokens); err != nil {
		slog.Warn("Corrupt session file ignored",
			slog.String("path", s.path),
			slog.Any("error", err),
		)
		s.tokens = Tokens{}
		return nil
	}

	s.tokens = tokens

	return nil
}

func (s *Store) Save(accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens := Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}

	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err = os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	s.tokens = tokens

	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = Tokens{}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tokens.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tokens.RefreshToken
}
