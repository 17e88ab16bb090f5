package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
)

// execute runs the root command with args and returns its output.
// Flag variables are reset first since cobra keeps them between runs.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		SetServices(Services{})
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags() {
	verboseFlag = false
	logLevelFlag = ""
	outputFlag = string(formatAuto)
	runForce, runProject, runPeriod = false, "", ""
	reprocessSection, reprocessReason = nil, ""
	listProject, listLimit = "", 20
	overrideReason, overrideAsText = "", false
	chunkType, chunkName = string(domain.SourceTypeDocument), ""
	ingestRoot, ingestWatch, ingestRemove = ".", "", nil
}

// mockGenerationService is a mock implementation of driving.GenerationService.
type mockGenerationService struct {
	records   map[string]*domain.GenerationRecord
	runOpts   driving.RunOptions
	listLimit int
	err       error
}

func newMockGenerationService(recs ...domain.GenerationRecord) *mockGenerationService {
	m := &mockGenerationService{records: make(map[string]*domain.GenerationRecord)}
	for i := range recs {
		m.records[recs[i].ID] = &recs[i]
	}
	return m
}

func (m *mockGenerationService) Create(_ context.Context, projectID, periodKey string) (*domain.GenerationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	rec := domain.GenerationRecord{
		ID:          "gen-new",
		ProjectID:   projectID,
		PeriodKey:   periodKey,
		Status:      domain.StatusQueued,
		Progress:    5,
		CurrentStep: domain.StepQueued,
	}
	m.records[rec.ID] = &rec
	return &rec, nil
}

func (m *mockGenerationService) Get(_ context.Context, id string) (*domain.GenerationRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (m *mockGenerationService) List(_ context.Context, projectID string, limit int) ([]domain.GenerationRecord, error) {
	m.listLimit = limit
	var out []domain.GenerationRecord
	for _, rec := range m.records {
		if projectID == "" || rec.ProjectID == projectID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *mockGenerationService) Run(_ context.Context, id string, opts driving.RunOptions) (*domain.GenerationRecord, error) {
	m.runOpts = opts
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec.Status = domain.StatusCompleted
	rec.Progress = 100
	rec.CurrentStep = domain.StepCompleted
	return rec, nil
}

func (m *mockGenerationService) Cancel(_ context.Context, id string) (*domain.GenerationRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if rec.Status == domain.StatusCompleted {
		return nil, domain.ErrPrecondition
	}
	rec.Status = domain.StatusCancelled
	return rec, nil
}

// mockReprocessService is a mock implementation of driving.ReprocessService.
type mockReprocessService struct {
	sections []domain.SectionName
	reason   string
}

func (m *mockReprocessService) ReprocessSections(
	_ context.Context,
	id string,
	sections []domain.SectionName,
	reason string,
) (*driving.ReprocessResult, error) {
	m.sections = sections
	m.reason = reason
	return &driving.ReprocessResult{GenerationID: id, Sections: sections, ValidationScore: 0.9}, nil
}

// mockOverrideService is a mock implementation of driving.OverrideService.
type mockOverrideService struct {
	overrides domain.Overrides
}

func (m *mockOverrideService) SetOverride(_ context.Context, id, fieldKey string, value any, reason string) (*domain.GenerationRecord, error) {
	if m.overrides == nil {
		m.overrides = domain.Overrides{}
	}
	m.overrides[fieldKey] = domain.Override{FieldKey: fieldKey, NewValue: value, Reason: reason}
	return &domain.GenerationRecord{ID: id, Overrides: m.overrides}, nil
}

func (m *mockOverrideService) RemoveOverride(_ context.Context, id, fieldKey string) (*domain.GenerationRecord, error) {
	if _, ok := m.overrides[fieldKey]; !ok {
		return nil, domain.ErrNotFound
	}
	delete(m.overrides, fieldKey)
	return &domain.GenerationRecord{ID: id, Overrides: m.overrides}, nil
}

func (m *mockOverrideService) ListOverrides(_ context.Context, _ string) ([]domain.Override, error) {
	var out []domain.Override
	for _, o := range m.overrides {
		out = append(out, o)
	}
	return out, nil
}

// mockIngestService records ingested and removed sources.
type mockIngestService struct {
	ingested []domain.SourceText
	removed  []string
}

func (m *mockIngestService) Ingest(_ context.Context, sources []domain.SourceText) (*driving.IngestReport, error) {
	m.ingested = append(m.ingested, sources...)
	return &driving.IngestReport{Sources: len(sources), Chunks: len(sources)}, nil
}

func (m *mockIngestService) Remove(_ context.Context, sourceID string) error {
	m.removed = append(m.removed, sourceID)
	return nil
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	llmSet      []string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llmSet = []string{string(p), model, apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }
func (m *mockSettingsService) ValidateLLMConfig() error { return nil }
