package credential

import (
	"context"
	"sync"
)

// MemoryStore holds the pair in process memory. Used in tests and
// short-lived tools where persistence across restarts is unwanted.
type MemoryStore struct {
	mu   sync.RWMutex
	pair *Pair
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Kind reports the strategy name.
func (s *MemoryStore) Kind() string { return "memory" }

func (s *MemoryStore) Get(ctx context.Context) (*Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.Clone(), nil
}

func (s *MemoryStore) Set(ctx context.Context, pair *Pair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair.Clone()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = nil
	return nil
}
