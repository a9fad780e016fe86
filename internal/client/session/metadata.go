package session

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/repositories/metadata"
)

// MetadataStore keeps the session in the local SQLite metadata table.
type MetadataStore struct {
	repo metadata.SessionRepository
}

func NewMetadataStore(repo metadata.SessionRepository) *MetadataStore {
	return &MetadataStore{repo: repo}
}

func (s *MetadataStore) Get(ctx context.Context) (*models.SessionIdentity, error) {
	raw, err := s.repo.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if raw == nil {
		return nil, ErrNoSession
	}
	return decode(raw)
}

func (s *MetadataStore) Set(ctx context.Context, id models.SessionIdentity) error {
	raw, err := encode(id)
	if err != nil {
		return err
	}
	if err := s.repo.SetSession(ctx, raw); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *MetadataStore) Clear(ctx context.Context) error {
	if err := s.repo.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
