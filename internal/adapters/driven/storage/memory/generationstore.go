package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
)

// Ensure GenerationStore implements the interface.
var _ driven.GenerationStore = (*GenerationStore)(nil)

// GenerationStore is an in-memory implementation of driven.GenerationStore.
// Records are deep-copied on the way in and out so callers never share maps.
type GenerationStore struct {
	mu      sync.RWMutex
	records map[string]domain.GenerationRecord
}

// NewGenerationStore creates a new in-memory generation store.
func NewGenerationStore() *GenerationStore {
	return &GenerationStore{
		records: make(map[string]domain.GenerationRecord),
	}
}

// Create inserts a new record.
func (s *GenerationStore) Create(_ context.Context, rec domain.GenerationRecord) error {
	stored, err := rec.Clone()
	if err != nil {
		return fmt.Errorf("copy generation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if stored.Version == 0 {
		stored.Version = 1
	}
	s.records[rec.ID] = stored
	return nil
}

// Get retrieves a record by id.
func (s *GenerationStore) Get(_ context.Context, id string) (*domain.GenerationRecord, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	out, err := rec.Clone()
	if err != nil {
		return nil, fmt.Errorf("copy generation: %w", err)
	}
	return &out, nil
}

// Save replaces an existing record and bumps its version.
func (s *GenerationStore) Save(_ context.Context, rec *domain.GenerationRecord) error {
	stored, err := rec.Clone()
	if err != nil {
		return fmt.Errorf("copy generation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.records[rec.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Version = prev.Version + 1
	s.records[rec.ID] = stored
	rec.Version = stored.Version
	return nil
}

// List returns records newest first.
func (s *GenerationStore) List(_ context.Context, filter driven.GenerationFilter) ([]domain.GenerationRecord, error) {
	s.mu.RLock()
	matched := make([]domain.GenerationRecord, 0, len(s.records))
	for _, rec := range s.records {
		if filter.ProjectID != "" && rec.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		matched = append(matched, rec)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	out := make([]domain.GenerationRecord, len(matched))
	for i, rec := range matched {
		c, err := rec.Clone()
		if err != nil {
			return nil, fmt.Errorf("copy generation: %w", err)
		}
		out[i] = c
	}
	return out, nil
}
