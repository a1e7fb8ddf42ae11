package credstore

import (
	"sync"

	"github.com/winnerx0/jille-client/internal/model"
)

// MemStore is an in-memory Store. Used in tests and anywhere persistence
// across restarts is not wanted.
type MemStore struct {
	mu   sync.RWMutex
	pair model.AuthTokens
	ok   bool
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Get() (model.AuthTokens, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair, s.ok
}

func (s *MemStore) Set(pair model.AuthTokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	s.ok = true
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = model.AuthTokens{}
	s.ok = false
	return nil
}
