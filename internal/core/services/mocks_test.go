package services

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/llm"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/adapters/driven/storage/memory"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
)

// --- Mock implementations shared by the pipeline tests ---

// mockLLM implements driven.TextCompletionProvider for testing.
type mockLLM struct {
	mu      stdsync.Mutex
	text    string
	tokens  int
	err     error
	prompts []string
}

func (m *mockLLM) Complete(_ context.Context, prompt string, _ driven.CompletionOptions) (driven.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return driven.Completion{}, m.err
	}
	return driven.Completion{Text: m.text, TokensUsed: m.tokens}, nil
}

// CompleteJSON decodes the canned text the way the provider adapters do.
func (m *mockLLM) CompleteJSON(_ context.Context, prompt, schema string, _ driven.CompletionOptions) (driven.JSONCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return driven.JSONCompletion{}, m.err
	}
	data, err := llm.DecodeObject(m.text, schema)
	if err != nil {
		return driven.JSONCompletion{}, err
	}
	return driven.JSONCompletion{Data: data, Raw: m.text, TokensUsed: m.tokens}, nil
}

func (m *mockLLM) ModelName() string            { return "mock" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// mockPrompts implements driven.PromptStore for testing.
type mockPrompts struct {
	templates map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	if t, ok := m.templates[name]; ok {
		return t, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPrompts) Reload() {}

// mockContextProvider implements driven.ContextProvider for testing.
type mockContextProvider struct {
	gctx  *domain.GenerationContext
	err   error
	calls int
}

func (m *mockContextProvider) BuildContext(_ context.Context, projectID, periodKey string) (*domain.GenerationContext, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := *m.gctx
	out.ProjectID = projectID
	out.PeriodKey = periodKey
	return &out, nil
}

// mockRenderer implements driven.DocumentRenderer for testing.
type mockRenderer struct {
	err      error
	requests []driven.RenderRequest
}

func (m *mockRenderer) Render(_ context.Context, req driven.RenderRequest) (*driven.RenderedDocument, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &driven.RenderedDocument{
		Name:     req.GenerationID + ".xlsx",
		Location: "/tmp/" + req.GenerationID + ".xlsx",
		Bytes:    1024,
	}, nil
}

// recordingStore wraps the memory store and records every saved step.
type recordingStore struct {
	*memory.GenerationStore
	mu    stdsync.Mutex
	saves []domain.Checkpoint
}

func newRecordingStore() *recordingStore {
	return &recordingStore{GenerationStore: memory.NewGenerationStore()}
}

func (s *recordingStore) Save(ctx context.Context, rec *domain.GenerationRecord) error {
	s.mu.Lock()
	s.saves = append(s.saves, domain.Checkpoint{Step: rec.CurrentStep, Progress: rec.Progress})
	s.mu.Unlock()
	return s.GenerationStore.Save(ctx, rec)
}

func (s *recordingStore) steps() []domain.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Step, 0, len(s.saves))
	for _, c := range s.saves {
		if len(out) == 0 || out[len(out)-1] != c.Step {
			out = append(out, c.Step)
		}
	}
	return out
}

func (s *recordingStore) progress() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.saves))
	for i, c := range s.saves {
		out[i] = c.Progress
	}
	return out
}

func ptime(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

// sampleContext returns a context that fills every report field.
func sampleContext() *domain.GenerationContext {
	return &domain.GenerationContext{
		ProjectID: "proj-1",
		PeriodKey: "2025-03",
		Project: domain.ProjectMetadata{
			Name:         "Acme",
			Code:         "ACM-01",
			Organization: "Acme Ltda",
			Coordinator:  "Maria Souza",
			StartDate:    ptime("2024-01-01T00:00:00Z"),
			EndDate:      ptime("2026-12-31T00:00:00Z"),
		},
		WorkItems: []domain.WorkItem{
			{
				ID: 101, Title: "Modelagem do banco", State: "Done", AssignedTo: "Joao Lima",
				CreatedDate: ptime("2025-03-01T10:00:00Z"), ClosedDate: ptime("2025-03-10T10:00:00Z"),
				ChangedDate: ptime("2025-03-10T10:00:00Z"), CompletedWork: 16,
			},
			{
				ID: 102, Title: "API de relatórios", State: "Active", AssignedTo: "Maria Souza",
				Description:   "<p>Endpoints de <b>geração</b></p>",
				CreatedDate:   ptime("2025-03-05T10:00:00Z"),
				ChangedDate:   ptime("2025-03-20T10:00:00Z"),
				CompletedWork: 8, RemainingWork: 12,
			},
			{
				ID: 103, Title: "Testes de carga", State: "New",
				CreatedDate: ptime("2025-03-15T10:00:00Z"),
				ChangedDate: ptime("2025-03-15T10:00:00Z"),
			},
		},
		Sprints: []domain.Sprint{
			{ID: "s1", Name: "Sprint 7", TotalItems: 3, CompletedItems: 1},
		},
		Documents: []domain.DocumentRef{{ID: "d1", Name: "Plano de Trabalho.pdf"}},
		WikiPages: []domain.WikiPageRef{{ID: "w1", Title: "Arquitetura"}},
		TeamMembers: []domain.TeamMember{
			{Name: "Maria Souza", CPF: "111.222.333-44", Degree: "Doutora", Role: "Coordenadora"},
			{Name: "Joao Lima", CPF: "555.666.777-88", Degree: "Mestre", Role: "Desenvolvedor"},
		},
	}
}

// emptyContext returns a valid context with nothing to report.
func emptyContext() *domain.GenerationContext {
	return &domain.GenerationContext{
		ProjectID: "proj-1",
		PeriodKey: "2025-03",
		Project:   domain.ProjectMetadata{Name: "Acme"},
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
}
