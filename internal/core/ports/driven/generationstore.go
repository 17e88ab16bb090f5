package driven

import (
	"context"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

// GenerationStore persists generation records.
// Writes replace the whole record; the last writer wins.
type GenerationStore interface {
	// Create inserts a new record. Returns domain.ErrAlreadyExists on id collision.
	Create(ctx context.Context, rec domain.GenerationRecord) error

	// Get retrieves a record by id. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.GenerationRecord, error)

	// Save replaces an existing record and bumps its version.
	// Returns domain.ErrNotFound if absent.
	Save(ctx context.Context, rec *domain.GenerationRecord) error

	// List returns records newest first, optionally filtered by project.
	List(ctx context.Context, filter GenerationFilter) ([]domain.GenerationRecord, error)
}

// GenerationFilter narrows List results. Zero values match everything.
type GenerationFilter struct {
	ProjectID string
	Status    domain.GenerationStatus
	Limit     int
}
