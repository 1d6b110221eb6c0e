// Package auth persists the backend's login tokens between runs.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/afero"

	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

// AppSlug names the per-user state directory.
const AppSlug = "pizzatimer"

// Credentials are the tokens issued by /api/auth/login.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Email        string `json:"email,omitempty"`
}

// DefaultPath returns the credential file under the XDG state home.
func DefaultPath() string {
	return filepath.Join(xdg.StateHome, AppSlug, "credentials.json")
}

// Store reads and writes credentials through an afero filesystem.
type Store struct {
	fs   afero.Fs
	path string
	log  *logger.Logger

	mu     sync.Mutex
	cached *Credentials
}

// NewStore creates a store backed by the file at path.
func NewStore(fs afero.Fs, path string, log *logger.Logger) *Store {
	return &Store{fs: fs, path: path, log: log}
}

// Path returns the credential file location.
func (s *Store) Path() string { return s.path }

// Load returns the stored credentials. A missing file yields empty
// credentials and no error.
func (s *Store) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return *s.cached, nil
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.cached = &Credentials{}
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}

	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("parsing credentials %s: %w", s.path, err)
	}
	s.cached = &c
	return c, nil
}

// Save replaces the stored credentials.
func (s *Store) Save(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := writeFileAtomic(s.fs, s.path, data); err != nil {
		return err
	}
	s.cached = &c
	s.log.Debug("credentials saved to %s", s.path)
	return nil
}

// Clear forgets the stored credentials.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = &Credentials{}
	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	s.log.Debug("credentials cleared")
	return nil
}

// Authenticated reports whether a non-expired access token is stored.
// Tokens without an exp claim count as valid; the server has the last word.
func (s *Store) Authenticated(now time.Time) bool {
	c, err := s.Load()
	if err != nil {
		s.log.Warn("auth: %v", err)
		return false
	}
	if c.AccessToken == "" {
		return false
	}

	exp, ok, err := ExpiresAt(c.AccessToken)
	if err != nil {
		s.log.Debug("auth: unreadable access token: %v", err)
		return false
	}
	return !ok || now.Before(exp)
}

// ExpiresAt decodes the exp claim without verifying the signature.
func ExpiresAt(token string) (time.Time, bool, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, fmt.Errorf("decoding token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false, nil
	}
	return claims.ExpiresAt.Time, true, nil
}

// writeFileAtomic writes through a temp file and rename, owner-only.
func writeFileAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer fs.Remove(tmpPath) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := fs.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("restricting credentials file: %w", err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming credentials into place: %w", err)
	}
	return nil
}
