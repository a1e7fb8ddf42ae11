package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/winnerx0/jille-client/internal/model"
)

// FileStore persists the credential pair as a JSON file so the session
// survives process restarts. Writes go to a temp file first and are
// renamed into place, so a crash mid-write never leaves a torn pair on
// disk. The in-memory copy is authoritative for reads.
type FileStore struct {
	path string

	mu   sync.RWMutex
	pair model.AuthTokens
	ok   bool
}

// NewFileStore loads any previously persisted pair from path. A missing
// or unreadable file starts the store empty rather than failing: a stale
// session file must never block startup.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	var pair model.AuthTokens
	if err := json.Unmarshal(data, &pair); err != nil {
		// Corrupt file: treat as logged out.
		return s, nil
	}
	if pair.AccessToken != "" && pair.RefreshToken != "" {
		s.pair = pair
		s.ok = true
	}
	return s, nil
}

func (s *FileStore) Get() (model.AuthTokens, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, s.ok
}

func (s *FileStore) Set(pair model.AuthTokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(&pair); err != nil {
		return err
	}
	s.pair = pair
	s.ok = true
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	s.pair = model.AuthTokens{}
	s.ok = false
	return nil
}

// persist writes the pair to a sibling temp file and renames it over the
// target. Rename is atomic on POSIX filesystems.
func (s *FileStore) persist(pair *model.AuthTokens) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}

	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp credential file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp credential file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename credential file: %w", err)
	}
	return nil
}
