package services

import (
	"context"
	"fmt"
	"time"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// Ensure ReprocessService implements the interface.
var _ driving.ReprocessService = (*ReprocessService)(nil)

// ReprocessService re-runs selected sections of a generation and folds the
// fresh results back into the stored ones.
type ReprocessService struct {
	store    driven.GenerationStore
	pipeline Pipeline
	guard    *RunGuard
	now      func() time.Time
}

// NewReprocessService creates a new reprocess service.
func NewReprocessService(store driven.GenerationStore, pipeline Pipeline, guard *RunGuard) *ReprocessService {
	if guard == nil {
		guard = NewRunGuard()
	}
	return &ReprocessService{
		store:    store,
		pipeline: pipeline,
		guard:    guard,
		now:      time.Now,
	}
}

// ReprocessSections re-extracts and re-normalizes sections, merges them by
// field name into the stored results, re-validates, and re-applies every
// override to produce the final placeholder map. Nothing is written unless
// every step succeeds.
func (s *ReprocessService) ReprocessSections(ctx context.Context, id string, sections []domain.SectionName, reason string) (*driving.ReprocessResult, error) {
	sections, err := uniqueSections(sections)
	if err != nil {
		return nil, fmt.Errorf("reprocess: %w", err)
	}

	release, err := s.guard.Acquire(id, "reprocess")
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	if rec.Status == domain.StatusCancelled {
		return nil, fmt.Errorf("reprocess %s: %w", id, domain.ErrCancelled)
	}

	prior := rec.PartialResults
	switch {
	case prior.Context == nil:
		return nil, fmt.Errorf("reprocess %s: %w: no stored context", id, domain.ErrPrecondition)
	case prior.Extraction == nil:
		return nil, fmt.Errorf("reprocess %s: %w: no stored extraction", id, domain.ErrPrecondition)
	case prior.Normalization == nil:
		return nil, fmt.Errorf("reprocess %s: %w: no stored normalization", id, domain.ErrPrecondition)
	}

	logger.Section("Reprocess " + id)
	selected := domain.FieldNamesFor(sections)

	freshExt := &domain.ExtractionOutput{}
	freshNorm := &domain.NormalizationOutput{}
	for _, section := range sections {
		ext, err := s.pipeline.Extractor.ExtractSection(ctx, prior.Context, section)
		if err != nil {
			return nil, fmt.Errorf("reprocess %s: %w", section, err)
		}
		norm, err := s.pipeline.Normalizer.NormalizeSection(ctx, ext, s.pipeline.GuideText, section)
		if err != nil {
			return nil, fmt.Errorf("reprocess %s: %w", section, err)
		}
		freshExt.Sections = append(freshExt.Sections, ext.Sections...)
		freshExt.TotalDurationMs += ext.TotalDurationMs
		freshNorm.Sections = append(freshNorm.Sections, norm.Sections...)
		freshNorm.TotalDurationMs += norm.TotalDurationMs
		logger.Debug("reprocess %s: section %s refreshed", id, section)
	}

	mergedExt := domain.MergeExtraction(prior.Extraction, freshExt, selected)
	mergedNorm := domain.MergeNormalization(prior.Normalization, freshNorm, selected)

	report, err := s.pipeline.Validator.Validate(ctx, mergedNorm, RequiredFieldsFor(prior.Context))
	if err != nil {
		return nil, fmt.Errorf("reprocess %s: %w", id, err)
	}

	sectionNames := make([]any, len(sections))
	for i, sec := range sections {
		sectionNames[i] = string(sec)
	}

	_, err = applyUpdate(ctx, s.store, s.now, *rec, func(r *domain.GenerationRecord) {
		r.PartialResults.Extraction = mergedExt
		r.PartialResults.Normalization = mergedNorm
		r.PartialResults.ValidationReport = report
		r.PartialResults.PlaceholderMap = placeholdersFor(r)
		r.SetMeta(domain.MetaReprocessedAt, s.now().UTC().Format(time.RFC3339))
		r.SetMeta(domain.MetaReprocessReason, reason)
		r.SetMeta(domain.MetaReprocessedSections, sectionNames)
		r.Advance(domain.StepCompleted)
		r.CurrentStep = domain.StepReviewReprocessed
	})
	if err != nil {
		return nil, err
	}

	logger.Info("generation %s: reprocessed %v, score %.2f", id, sections, report.OverallScore)
	return &driving.ReprocessResult{
		GenerationID:    id,
		Sections:        sections,
		ValidationScore: report.OverallScore,
	}, nil
}

// uniqueSections validates and de-duplicates section names, keeping order.
func uniqueSections(sections []domain.SectionName) ([]domain.SectionName, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: at least one section is required", domain.ErrInvalidInput)
	}
	seen := make(map[domain.SectionName]bool, len(sections))
	out := make([]domain.SectionName, 0, len(sections))
	for _, sec := range sections {
		if !sec.IsValid() {
			return nil, fmt.Errorf("%w: unknown section %q", domain.ErrInvalidInput, sec)
		}
		if seen[sec] {
			continue
		}
		seen[sec] = true
		out = append(out, sec)
	}
	return out, nil
}
