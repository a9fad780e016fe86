package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
)

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (*models.SessionIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, ErrNoSession
	}
	return decode(s.raw)
}

func (s *MemoryStore) Set(_ context.Context, id models.SessionIdentity) error {
	raw, err := encode(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = nil
	return nil
}
