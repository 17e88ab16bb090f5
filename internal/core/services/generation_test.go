package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
)

func runOpts(force bool) driving.RunOptions {
	return driving.RunOptions{Force: force}
}

func newTestGenerationService(store *recordingStore, provider *mockContextProvider, renderer *mockRenderer) *GenerationService {
	var svc *GenerationService
	if renderer == nil {
		svc = NewGenerationService(store, provider, nil, DefaultPipeline(), nil)
	} else {
		svc = NewGenerationService(store, provider, renderer, DefaultPipeline(), nil)
	}
	svc.now = fixedNow
	return svc
}

func TestGenerationService_Create(t *testing.T) {
	svc := newTestGenerationService(newRecordingStore(), &mockContextProvider{gctx: sampleContext()}, nil)

	rec, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, domain.StatusQueued, rec.Status)
	assert.Equal(t, domain.StepQueued, rec.CurrentStep)
	assert.Equal(t, 5, rec.Progress)
	assert.Equal(t, fixedNow(), rec.CreatedAt)
}

func TestGenerationService_Create_InvalidInput(t *testing.T) {
	svc := newTestGenerationService(newRecordingStore(), &mockContextProvider{gctx: sampleContext()}, nil)

	tests := []struct {
		name      string
		projectID string
		periodKey string
	}{
		{"missing project", "", "2025-03"},
		{"bad period", "proj-1", "03/2025"},
		{"month out of range", "proj-1", "2025-00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.projectID, tt.periodKey)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestGenerationService_Run_Completes(t *testing.T) {
	store := newRecordingStore()
	renderer := &mockRenderer{}
	svc := newTestGenerationService(store, &mockContextProvider{gctx: sampleContext()}, renderer)
	rec, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)

	got, err := svc.Run(context.Background(), rec.ID, runOpts(false))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, domain.StepCompleted, got.CurrentStep)
	assert.Equal(t, 100, got.Progress)
	assert.Empty(t, got.ErrorMessage)
	require.NotNil(t, got.PartialResults.ValidationReport)
	assert.True(t, got.PartialResults.ValidationReport.Approved)
	assert.Equal(t, "Acme", got.PartialResults.PlaceholderMap[domain.FieldProjectName])
	assert.Equal(t, rec.ID+".xlsx", got.PartialResults.Metadata[domain.MetaDocumentName])
	assert.Equal(t, float64(1024), got.PartialResults.Metadata[domain.MetaDocumentBytes])

	require.Len(t, renderer.requests, 1)
	assert.Equal(t, "Acme", renderer.requests[0].Placeholders[domain.FieldProjectName])

	assert.Equal(t, []domain.Step{
		domain.StepProcessing,
		domain.StepExtractorRunning,
		domain.StepExtractorDone,
		domain.StepNormalizerRunning,
		domain.StepNormalizerDone,
		domain.StepValidatorRunning,
		domain.StepValidatorDone,
		domain.StepDocxRendering,
		domain.StepCompleted,
	}, store.steps())

	progress := store.progress()
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1], "progress went backwards at save %d", i)
	}
}

func TestGenerationService_Run_WithoutRenderer(t *testing.T) {
	svc := newTestGenerationService(newRecordingStore(), &mockContextProvider{gctx: sampleContext()}, nil)
	rec, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)

	got, err := svc.Run(context.Background(), rec.ID, runOpts(false))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, got.Status)
	_, hasDoc := got.PartialResults.Metadata[domain.MetaDocumentName]
	assert.False(t, hasDoc)
}

func TestGenerationService_Run_ValidationFailed(t *testing.T) {
	store := newRecordingStore()
	renderer := &mockRenderer{}
	svc := newTestGenerationService(store, &mockContextProvider{gctx: emptyContext()}, renderer)
	rec, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)

	got, err := svc.Run(context.Background(), rec.ID, runOpts(false))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, domain.StepValidationFailed, got.CurrentStep)
	assert.Equal(t, 75, got.Progress)
	assert.Equal(t, domain.ValidationFailedMessage, got.ErrorMessage)
	assert.False(t, got.PartialResults.ValidationReport.Approved)
	assert.NotEmpty(t, got.PartialResults.ValidationReport.RetryRecommendations)
	assert.Empty(t, renderer.requests)
}

func TestGenerationService_Run_ContextError(t *testing.T) {
	store := newRecordingStore()
	svc := newTestGenerationService(store, &mockContextProvider{err: domain.ErrNotFound}, nil)
	rec, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)

	got, err := svc.Run(context.Background(), rec.ID, runOpts(false))
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "build context: not found", got.ErrorMessage)

	stored, err := store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestGenerationService_Run_MalformedContext(t *testing.T) {
	bad := sampleContext()
	bad.WorkItems = append(bad.WorkItems, domain.WorkItem{Title: "sem id"})
	svc := newTestGenerationService(newRecordingStore(), &mockContextProvider{gctx: bad}, nil)
	rec, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)

	got, err := svc.Run(context.Background(), rec.ID, runOpts(false))

	assert.ErrorIs(t, err, domain.ErrInvalidContext)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Nil(t, got.PartialResults.Extraction)
}

func TestGenerationService_Run_RendererError(t *testing.T) {
	renderer := &mockRenderer{err: errors.New("disk full")}
	svc := newTestGenerationService(newRecordingStore(), &mockContextProvider{gctx: sampleContext()}, renderer)
	rec, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)

	got, err := svc.Run(context.Background(), rec.ID, runOpts(false))

	require.Error(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, "render: disk full", got.ErrorMessage)
	assert.NotNil(t, got.PartialResults.ValidationReport)
}

func TestGenerationService_Run_ResumesFromStoredStages(t *testing.T) {
	provider := &mockContextProvider{gctx: emptyContext()}
	svc := newTestGenerationService(newRecordingStore(), provider, nil)
	rec, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)

	first, err := svc.Run(context.Background(), rec.ID, runOpts(false))
	require.NoError(t, err)
	require.Equal(t, domain.StepValidationFailed, first.CurrentStep)

	// The provider now has data, but a plain re-run reuses the stored snapshot.
	provider.gctx = sampleContext()
	second, err := svc.Run(context.Background(), rec.ID, runOpts(false))
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, domain.StepValidationFailed, second.CurrentStep)

	third, err := svc.Run(context.Background(), rec.ID, runOpts(true))
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, domain.StatusCompleted, third.Status)
}

func TestGenerationService_Run_NotFound(t *testing.T) {
	svc := newTestGenerationService(newRecordingStore(), &mockContextProvider{gctx: sampleContext()}, nil)

	_, err := svc.Run(context.Background(), "missing", runOpts(false))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerationService_Run_Cancelled(t *testing.T) {
	provider := &mockContextProvider{gctx: sampleContext()}
	svc := newTestGenerationService(newRecordingStore(), provider, nil)
	rec, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)

	got, err := svc.Run(context.Background(), rec.ID, runOpts(false))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Zero(t, provider.calls)
}

func TestGenerationService_Cancel(t *testing.T) {
	svc := newTestGenerationService(newRecordingStore(), &mockContextProvider{gctx: sampleContext()}, nil)
	rec, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)

	first, err := svc.Cancel(context.Background(), rec.ID)
	require.NoError(t, err)
	again, err := svc.Cancel(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Version, again.Version)

	done, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)
	_, err = svc.Run(context.Background(), done.ID, runOpts(false))
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), done.ID)
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}

func TestGenerationService_Run_RunInProgress(t *testing.T) {
	store := newRecordingStore()
	guard := NewRunGuard()
	svc := NewGenerationService(store, &mockContextProvider{gctx: sampleContext()}, nil, DefaultPipeline(), guard)
	rec, err := svc.Create(context.Background(), "proj-1", "2025-03")
	require.NoError(t, err)

	release, err := guard.Acquire(rec.ID, "reprocess")
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), rec.ID, runOpts(false))
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	release()
	_, err = svc.Run(context.Background(), rec.ID, runOpts(false))
	assert.NoError(t, err)
}

func TestGenerationService_List(t *testing.T) {
	svc := newTestGenerationService(newRecordingStore(), &mockContextProvider{gctx: sampleContext()}, nil)
	for _, p := range []string{"proj-1", "proj-2", "proj-1"} {
		_, err := svc.Create(context.Background(), p, "2025-03")
		require.NoError(t, err)
	}

	all, err := svc.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	one, err := svc.List(context.Background(), "proj-1", 0)
	require.NoError(t, err)
	assert.Len(t, one, 2)
}

func TestRequiredFieldsFor(t *testing.T) {
	gctx := sampleContext()
	gctx.Placeholders = []domain.PlaceholderRequirement{
		{Name: domain.FieldCoordinator, Required: true},
		{Name: domain.FieldProjectName, Required: true},
		{Name: domain.FieldNextSteps, Required: false},
		{Name: "DESCONHECIDO", Required: true},
	}

	spec := RequiredFieldsFor(gctx)

	assert.Contains(t, spec.Fields, domain.FieldCoordinator)
	assert.NotContains(t, spec.Fields, domain.FieldNextSteps)
	assert.NotContains(t, spec.Fields, "DESCONHECIDO")
	assert.Len(t, spec.Fields, len(domain.DefaultRequiredFieldSpec().Fields)+1)
}
