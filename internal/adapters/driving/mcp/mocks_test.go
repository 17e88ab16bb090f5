package mcp

import (
	"context"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
)

// mockGenerationService is a mock implementation of driving.GenerationService.
type mockGenerationService struct {
	records map[string]*domain.GenerationRecord
	created []string
	runOpts driving.RunOptions
	err     error
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
	rec := domain.GenerationRecord{ID: "gen-new", ProjectID: projectID, PeriodKey: periodKey, Status: domain.StatusQueued}
	m.records[rec.ID] = &rec
	m.created = append(m.created, rec.ID)
	return &rec, nil
}

func (m *mockGenerationService) Get(_ context.Context, id string) (*domain.GenerationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (m *mockGenerationService) List(_ context.Context, _ string, _ int) ([]domain.GenerationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.GenerationRecord
	for _, rec := range m.records {
		out = append(out, *rec)
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
	rec.Status = domain.StatusCancelled
	return rec, nil
}

// mockReprocessService is a mock implementation of driving.ReprocessService.
type mockReprocessService struct {
	sections []domain.SectionName
	reason   string
	err      error
}

func (m *mockReprocessService) ReprocessSections(
	_ context.Context,
	id string,
	sections []domain.SectionName,
	reason string,
) (*driving.ReprocessResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sections = sections
	m.reason = reason
	return &driving.ReprocessResult{GenerationID: id, Sections: sections, ValidationScore: 87.5}, nil
}

// mockOverrideService is a mock implementation of driving.OverrideService.
type mockOverrideService struct {
	overrides map[string]domain.Override
	err       error
}

func (m *mockOverrideService) SetOverride(_ context.Context, _, fieldKey string, value any, reason string) (*domain.GenerationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.overrides == nil {
		m.overrides = make(map[string]domain.Override)
	}
	m.overrides[fieldKey] = domain.Override{FieldKey: fieldKey, NewValue: value, Reason: reason}
	return &domain.GenerationRecord{}, nil
}

func (m *mockOverrideService) RemoveOverride(_ context.Context, _, fieldKey string) (*domain.GenerationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	delete(m.overrides, fieldKey)
	return &domain.GenerationRecord{}, nil
}

func (m *mockOverrideService) ListOverrides(_ context.Context, _ string) ([]domain.Override, error) {
	out := make([]domain.Override, 0, len(m.overrides))
	for _, o := range m.overrides {
		out = append(out, o)
	}
	return out, nil
}

// mockChunker echoes the input as a single chunk.
type mockChunker struct {
	last domain.SourceText
}

func (m *mockChunker) Chunk(input domain.SourceText) []domain.Chunk {
	m.last = input
	if input.Text == "" {
		return nil
	}
	return []domain.Chunk{{
		Content:  input.Text,
		Metadata: domain.ChunkMetadata{SourceType: input.SourceType, DocumentName: input.DocumentName},
	}}
}
