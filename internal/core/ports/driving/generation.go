package driving

import (
	"context"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

// GenerationService manages the lifecycle of report generations.
type GenerationService interface {
	// Create registers a queued generation for a project period.
	Create(ctx context.Context, projectID, periodKey string) (*domain.GenerationRecord, error)

	// Get returns a generation by id.
	Get(ctx context.Context, id string) (*domain.GenerationRecord, error)

	// List returns generations newest first. An empty projectID lists all.
	List(ctx context.Context, projectID string, limit int) ([]domain.GenerationRecord, error)

	// Run drives the pipeline for a generation and returns the final record.
	// Validation failure is a terminal state, not an error.
	Run(ctx context.Context, id string, opts RunOptions) (*domain.GenerationRecord, error)

	// Cancel marks a generation cancelled. Later runs return without executing stages.
	Cancel(ctx context.Context, id string) (*domain.GenerationRecord, error)
}

// RunOptions tunes a pipeline run.
type RunOptions struct {
	// Force re-runs extraction and normalization even when results exist.
	Force bool
}

// ReprocessService re-runs selected sections of a completed generation.
type ReprocessService interface {
	// ReprocessSections re-extracts and re-normalizes the given sections,
	// merges them into the stored results and re-applies overrides.
	ReprocessSections(ctx context.Context, id string, sections []domain.SectionName, reason string) (*ReprocessResult, error)
}

// ReprocessResult summarises a reprocessing run.
type ReprocessResult struct {
	GenerationID    string               `json:"generationId"`
	Sections        []domain.SectionName `json:"sections"`
	ValidationScore float64              `json:"validationScore"`
}

// OverrideService manages manual field corrections.
type OverrideService interface {
	// SetOverride stores a replacement value for a field key and recomputes the placeholder map.
	SetOverride(ctx context.Context, id, fieldKey string, value any, reason string) (*domain.GenerationRecord, error)

	// RemoveOverride drops the override for a field key and recomputes the placeholder map.
	RemoveOverride(ctx context.Context, id, fieldKey string) (*domain.GenerationRecord, error)

	// ListOverrides returns the generation's overrides ordered by field key.
	ListOverrides(ctx context.Context, id string) ([]domain.Override, error)
}
