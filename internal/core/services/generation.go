package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// Ensure GenerationService implements the interface.
var _ driving.GenerationService = (*GenerationService)(nil)

// Pipeline bundles the three generation stages.
type Pipeline struct {
	Extractor  *Extractor
	Normalizer *Normalizer
	Validator  *Validator

	// GuideText is passed to the normalizer.
	GuideText string
}

// DefaultPipeline returns a pipeline without LLM enrichment.
func DefaultPipeline() Pipeline {
	return Pipeline{
		Extractor:  NewExtractor(),
		Normalizer: NewNormalizer(),
		Validator:  NewValidator(),
	}
}

// RequiredFieldsFor returns the default required set plus every known field
// the context's placeholder list marks as required.
func RequiredFieldsFor(gctx *domain.GenerationContext) domain.RequiredFieldSpec {
	spec := domain.DefaultRequiredFieldSpec()
	if gctx == nil {
		return spec
	}
	have := make(map[string]bool, len(spec.Fields))
	for _, f := range spec.Fields {
		have[f] = true
	}
	for _, p := range gctx.Placeholders {
		if !p.Required || have[p.Name] {
			continue
		}
		if _, known := domain.SectionOf(p.Name); !known {
			continue
		}
		have[p.Name] = true
		spec.Fields = append(spec.Fields, p.Name)
	}
	return spec
}

// GenerationService drives generations through the pipeline.
type GenerationService struct {
	store    driven.GenerationStore
	contexts driven.ContextProvider
	renderer driven.DocumentRenderer
	pipeline Pipeline
	guard    *RunGuard
	now      func() time.Time
	newID    func() string
}

// NewGenerationService creates a new generation service.
// The renderer is optional - if nil, runs complete after validation.
func NewGenerationService(
	store driven.GenerationStore,
	contexts driven.ContextProvider,
	renderer driven.DocumentRenderer,
	pipeline Pipeline,
	guard *RunGuard,
) *GenerationService {
	if guard == nil {
		guard = NewRunGuard()
	}
	return &GenerationService{
		store:    store,
		contexts: contexts,
		renderer: renderer,
		pipeline: pipeline,
		guard:    guard,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Create registers a queued generation.
func (s *GenerationService) Create(ctx context.Context, projectID, periodKey string) (*domain.GenerationRecord, error) {
	if projectID == "" {
		return nil, fmt.Errorf("create generation: %w: project id is required", domain.ErrInvalidInput)
	}
	if !domain.ValidPeriodKey(periodKey) {
		return nil, fmt.Errorf("create generation: %w: period %q is not YYYY-MM", domain.ErrInvalidInput, periodKey)
	}

	rec := domain.NewGenerationRecord(s.newID(), projectID, periodKey, s.now().UTC())
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create generation: %w", err)
	}
	logger.Info("generation %s queued for %s %s", rec.ID, projectID, periodKey)
	return &rec, nil
}

// Get returns a generation by id.
func (s *GenerationService) Get(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	return rec, nil
}

// List returns generations newest first.
func (s *GenerationService) List(ctx context.Context, projectID string, limit int) ([]domain.GenerationRecord, error) {
	recs, err := s.store.List(ctx, driven.GenerationFilter{ProjectID: projectID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	return recs, nil
}

// Cancel marks a generation cancelled. Completed generations cannot be cancelled.
func (s *GenerationService) Cancel(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	switch rec.Status {
	case domain.StatusCancelled:
		return rec, nil
	case domain.StatusCompleted:
		return nil, fmt.Errorf("cancel generation %s: %w: already completed", id, domain.ErrPrecondition)
	}

	next, err := s.apply(ctx, *rec, func(r *domain.GenerationRecord) {
		r.Status = domain.StatusCancelled
		r.CurrentStep = domain.StepCancelled
	})
	if err != nil {
		return nil, err
	}
	logger.Info("generation %s cancelled", id)
	return &next, nil
}

// Run drives a generation through context loading, extraction, normalization,
// validation and rendering. Each stage's output is persisted before the next
// starts. Stages whose output already exists are skipped unless opts.Force.
// A rejected validation ends the run in the failed state without an error.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *GenerationService) Run(ctx context.Context, id string, opts driving.RunOptions) (*domain.GenerationRecord, error) {
	release, err := s.guard.Acquire(id, "run")
	if err != nil {
		return nil, err
	}
	defer release()

	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	rec := *stored

	// 1. Cancelled generations never run
	if rec.Status == domain.StatusCancelled {
		logger.Info("generation %s is cancelled, skipping run", id)
		return &rec, nil
	}

	logger.Section("Generation " + id)
	rec, err = s.apply(ctx, rec, func(r *domain.GenerationRecord) {
		r.Advance(domain.StepProcessing)
		r.SetMeta(domain.MetaStartedAt, s.now().UTC().Format(time.RFC3339))
	})
	if err != nil {
		return nil, err
	}

	// 2. Context snapshot
	gctx := rec.PartialResults.Context
	if gctx == nil || opts.Force {
		gctx, err = s.contexts.BuildContext(ctx, rec.ProjectID, rec.PeriodKey)
		if err != nil {
			return s.fail(ctx, rec, domain.StepFailed, fmt.Errorf("build context: %w", err))
		}
		if rec, err = s.apply(ctx, rec, func(r *domain.GenerationRecord) {
			r.PartialResults.Context = gctx
		}); err != nil {
			return nil, err
		}
	}

	// 3. Extraction
	fresh := false
	if rec.PartialResults.Extraction == nil || opts.Force {
		if rec, err = s.apply(ctx, rec, func(r *domain.GenerationRecord) {
			r.Advance(domain.StepExtractorRunning)
		}); err != nil {
			return nil, err
		}
		ext, err := s.pipeline.Extractor.Extract(ctx, gctx)
		if err != nil {
			return s.fail(ctx, rec, domain.StepFailed, err)
		}
		if rec, err = s.apply(ctx, rec, func(r *domain.GenerationRecord) {
			r.PartialResults.Extraction = ext
			r.Advance(domain.StepExtractorDone)
		}); err != nil {
			return nil, err
		}
		fresh = true
		logger.Info("generation %s: extraction done (%d tokens)", id, ext.TotalTokens)
	}

	// 4. Normalization
	if rec.PartialResults.Normalization == nil || fresh {
		if rec, err = s.apply(ctx, rec, func(r *domain.GenerationRecord) {
			r.Advance(domain.StepNormalizerRunning)
		}); err != nil {
			return nil, err
		}
		norm, err := s.pipeline.Normalizer.Normalize(ctx, rec.PartialResults.Extraction, s.pipeline.GuideText)
		if err != nil {
			return s.fail(ctx, rec, domain.StepFailed, err)
		}
		if rec, err = s.apply(ctx, rec, func(r *domain.GenerationRecord) {
			r.PartialResults.Normalization = norm
			r.Advance(domain.StepNormalizerDone)
		}); err != nil {
			return nil, err
		}
		logger.Info("generation %s: normalization done", id)
	}

	// 5. Validation always re-runs
	if rec, err = s.apply(ctx, rec, func(r *domain.GenerationRecord) {
		r.Advance(domain.StepValidatorRunning)
	}); err != nil {
		return nil, err
	}
	report, err := s.pipeline.Validator.Validate(ctx, rec.PartialResults.Normalization, RequiredFieldsFor(gctx))
	if err != nil {
		return s.fail(ctx, rec, domain.StepFailed, err)
	}
	if rec, err = s.apply(ctx, rec, func(r *domain.GenerationRecord) {
		r.PartialResults.ValidationReport = report
		r.PartialResults.PlaceholderMap = placeholdersFor(r)
		r.Advance(domain.StepValidatorDone)
	}); err != nil {
		return nil, err
	}
	logger.Info("generation %s: validation score %.2f approved=%t", id, report.OverallScore, report.Approved)

	if !report.Approved {
		if rec, err = s.apply(ctx, rec, func(r *domain.GenerationRecord) {
			r.Fail(domain.StepValidationFailed, domain.ValidationFailedMessage)
		}); err != nil {
			return nil, err
		}
		return &rec, nil
	}

	// 6. Rendering
	if rec, err = s.apply(ctx, rec, func(r *domain.GenerationRecord) {
		r.Advance(domain.StepDocxRendering)
	}); err != nil {
		return nil, err
	}
	var doc *driven.RenderedDocument
	if s.renderer != nil {
		doc, err = s.renderer.Render(ctx, driven.RenderRequest{
			GenerationID: rec.ID,
			ProjectID:    rec.ProjectID,
			PeriodKey:    rec.PeriodKey,
			Placeholders: rec.PartialResults.PlaceholderMap.Clone(),
		})
		if err != nil {
			return s.fail(ctx, rec, domain.StepFailed, fmt.Errorf("render: %w", err))
		}
	} else {
		logger.Debug("generation %s: no renderer configured", id)
	}

	if rec, err = s.apply(ctx, rec, func(r *domain.GenerationRecord) {
		if doc != nil {
			r.SetMeta(domain.MetaDocumentName, doc.Name)
			r.SetMeta(domain.MetaDocumentLocation, doc.Location)
			r.SetMeta(domain.MetaDocumentBytes, float64(doc.Bytes))
		}
		r.SetMeta(domain.MetaCompletedAt, s.now().UTC().Format(time.RFC3339))
		r.Advance(domain.StepCompleted)
	}); err != nil {
		return nil, err
	}
	logger.Info("generation %s completed", id)
	return &rec, nil
}

// apply runs update on a copy of rec and persists the copy.
// On error rec is returned unchanged.
func (s *GenerationService) apply(ctx context.Context, rec domain.GenerationRecord, update func(*domain.GenerationRecord)) (domain.GenerationRecord, error) {
	return applyUpdate(ctx, s.store, s.now, rec, update)
}

// fail records a stage error verbatim and returns it to the caller.
func (s *GenerationService) fail(ctx context.Context, rec domain.GenerationRecord, step domain.Step, cause error) (*domain.GenerationRecord, error) {
	logger.Error("generation %s failed at %s: %v", rec.ID, rec.CurrentStep, cause)
	next, err := s.apply(ctx, rec, func(r *domain.GenerationRecord) {
		r.Fail(step, cause.Error())
	})
	if err != nil {
		return nil, errors.Join(cause, err)
	}
	return &next, cause
}

func applyUpdate(
	ctx context.Context,
	store driven.GenerationStore,
	now func() time.Time,
	rec domain.GenerationRecord,
	update func(*domain.GenerationRecord),
) (domain.GenerationRecord, error) {
	next, err := rec.Clone()
	if err != nil {
		return rec, fmt.Errorf("copy generation: %w", err)
	}
	update(&next)
	next.UpdatedAt = now().UTC()
	if err := store.Save(ctx, &next); err != nil {
		return rec, fmt.Errorf("save generation: %w", err)
	}
	return next, nil
}
