package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
)

var baseTime = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func newRecord(id, project string, created time.Time) domain.GenerationRecord {
	return domain.NewGenerationRecord(id, project, "2025-03", created)
}

func TestGenerationStore_CreateAndGet(t *testing.T) {
	store := setupTestStore(t).GenerationStore()
	ctx := context.Background()

	rec := newRecord("g1", "p1", baseTime)
	rec.PartialResults.Metadata = map[string]any{domain.MetaStartedAt: "2025-04-01T12:00:00Z"}
	rec.Overrides["PROJETO_NOME"] = domain.Override{
		FieldKey:      "PROJETO_NOME",
		SectionName:   domain.SectionProjectData,
		OriginalValue: "Acme",
		NewValue:      "Acme Corp",
	}
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ProjectID)
	assert.Equal(t, "2025-03", got.PeriodKey)
	assert.Equal(t, domain.StatusQueued, got.Status)
	assert.Equal(t, domain.StepQueued, got.CurrentStep)
	assert.Equal(t, 5, got.Progress)
	assert.Equal(t, 1, got.Version)
	assert.True(t, baseTime.Equal(got.CreatedAt))
	assert.Equal(t, "Acme Corp", got.Overrides["PROJETO_NOME"].NewValue)
	assert.Equal(t, "2025-04-01T12:00:00Z", got.PartialResults.Metadata[domain.MetaStartedAt])
}

func TestGenerationStore_Create_Duplicate(t *testing.T) {
	store := setupTestStore(t).GenerationStore()
	ctx := context.Background()
	rec := newRecord("g1", "p1", baseTime)

	require.NoError(t, store.Create(ctx, rec))
	assert.ErrorIs(t, store.Create(ctx, rec), domain.ErrAlreadyExists)
}

func TestGenerationStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t).GenerationStore()

	_, err := store.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerationStore_Save(t *testing.T) {
	store := setupTestStore(t).GenerationStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, newRecord("g1", "p1", baseTime)))

	rec, err := store.Get(ctx, "g1")
	require.NoError(t, err)
	rec.Status = domain.StatusProcessing
	rec.Advance(domain.StepExtractorRunning)
	rec.ErrorMessage = "transient"
	rec.UpdatedAt = baseTime.Add(time.Minute)

	require.NoError(t, store.Save(ctx, rec))
	assert.Equal(t, 2, rec.Version)

	require.NoError(t, store.Save(ctx, rec))
	assert.Equal(t, 3, rec.Version)

	got, err := store.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Version)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.Equal(t, domain.StepExtractorRunning, got.CurrentStep)
	assert.Equal(t, 10, got.Progress)
	assert.Equal(t, "transient", got.ErrorMessage)
	assert.True(t, baseTime.Add(time.Minute).Equal(got.UpdatedAt))
	assert.True(t, baseTime.Equal(got.CreatedAt))
}

func TestGenerationStore_Save_NotFound(t *testing.T) {
	store := setupTestStore(t).GenerationStore()
	rec := newRecord("ghost", "p1", baseTime)

	assert.ErrorIs(t, store.Save(context.Background(), &rec), domain.ErrNotFound)
}

func TestGenerationStore_List(t *testing.T) {
	store := setupTestStore(t).GenerationStore()
	ctx := context.Background()

	seed := []domain.GenerationRecord{
		newRecord("a", "p1", baseTime),
		newRecord("b", "p1", baseTime.Add(2*time.Hour)),
		newRecord("c", "p2", baseTime.Add(time.Hour)),
		newRecord("d", "p1", baseTime.Add(2*time.Hour)),
	}
	seed[0].Status = domain.StatusCompleted
	for _, rec := range seed {
		require.NoError(t, store.Create(ctx, rec))
	}

	tests := []struct {
		name   string
		filter driven.GenerationFilter
		want   []string
	}{
		{"all newest first", driven.GenerationFilter{}, []string{"b", "d", "c", "a"}},
		{"by project", driven.GenerationFilter{ProjectID: "p1"}, []string{"b", "d", "a"}},
		{"by status", driven.GenerationFilter{Status: domain.StatusCompleted}, []string{"a"}},
		{"limit", driven.GenerationFilter{Limit: 2}, []string{"b", "d"}},
		{"no match", driven.GenerationFilter{ProjectID: "zzz"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			require.NoError(t, err)

			var ids []string
			for _, rec := range got {
				ids = append(ids, rec.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestGenerationStore_SharedAcrossHandles(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.GenerationStore().Create(ctx, newRecord("g1", "p1", baseTime)))

	got, err := s.GenerationStore().Get(ctx, "g1")
	require.NoError(t, err)
	assert.NotNil(t, got.Overrides)
}
