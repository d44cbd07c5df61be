// package cookies owns the lifecycle of the singleton authentication
// artifact (a Netscape cookies.txt bundle) some sources demand.
//
// There is at most one artifact at a time. Replacement is atomic with
// respect to concurrent readers: any reader opening the path sees either
// the old complete file or the new complete file, never a partial write.
package cookies

import (
	"crypto/subtle"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/shikhar109/Downloder/internal/shared"
)

// Store manages the cookie artifact at one fixed path. Mutation is gated
// by the administrative secret; an unset secret fails closed.
type Store struct {
	path     string
	adminKey string
	logger   *log.Logger

	// Serializes writers. Readers are pure file opens and need no lock;
	// the rename below keeps them consistent.
	mu sync.Mutex
}

// NewStore creates a Store for the artifact at path, gated by adminKey.
func NewStore(path, adminKey string, logger *log.Logger) *Store {
	return &Store{path: path, adminKey: adminKey, logger: logger}
}

// Present reports whether the artifact currently exists.
func (s *Store) Present() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Mode().IsRegular()
}

// Path returns the fixed artifact path. Only meaningful when Present.
func (s *Store) Path() string {
	return s.path
}

// Authorize checks the caller-supplied secret without touching the
// artifact, letting handlers reject a caller before reading any request
// body.
func (s *Store) Authorize(key string) error {
	return s.authorize(key)
}

// Replace atomically swaps in a new artifact read from r. The previous
// artifact, if any, is discarded without archiving.
func (s *Store) Replace(r io.Reader, key string) error {
	if err := s.authorize(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to prepare cookie directory: %w", err)
	}

	// Write to a temp file in the destination directory so the final
	// rename stays on one filesystem and is atomic.
	tmp, err := os.CreateTemp(dir, ".cookies-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cookie file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cookies: %w", err)
	}
	if n == 0 {
		tmp.Close()
		return shared.ErrEmptyCookies
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush cookies: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp cookie file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("failed to restrict cookie permissions: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to install cookies: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("cookies replaced", "path", s.path, "bytes", n)
	}
	return nil
}

// Delete removes the artifact. Returns whether one existed. Deleting an
// absent artifact is not an error.
func (s *Store) Delete(key string) (bool, error) {
	if err := s.authorize(key); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Present() {
		return false, nil
	}
	if err := os.Remove(s.path); err != nil {
		return false, fmt.Errorf("failed to delete cookies: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("cookies deleted", "path", s.path)
	}
	return true, nil
}

// authorize checks the caller-supplied secret. No configured secret means
// mutation is disabled outright, not open.
func (s *Store) authorize(key string) error {
	if s.adminKey == "" {
		return shared.ErrAdminKeyUnset
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) != 1 {
		return shared.ErrUnauthorized
	}
	return nil
}
