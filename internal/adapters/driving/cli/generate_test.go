package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

func TestGenerate_NotConfigured(t *testing.T) {
	_, err := execute(t, "", "generate", "status", "gen-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errGenerationNotConfigured)
}

func TestGenerateCreate_JSON(t *testing.T) {
	svc := newMockGenerationService()
	SetServices(Services{Generation: svc})

	out, err := execute(t, "", "generate", "create", "proj-1", "2024-05", "-o", "json")
	require.NoError(t, err)

	var rec domain.GenerationRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "gen-new", rec.ID)
	assert.Equal(t, "proj-1", rec.ProjectID)
	assert.Equal(t, "2024-05", rec.PeriodKey)
	assert.Equal(t, domain.StatusQueued, rec.Status)
}

func TestGenerateRun_ByID(t *testing.T) {
	svc := newMockGenerationService(domain.GenerationRecord{ID: "gen-1", ProjectID: "p", PeriodKey: "2024-05"})
	SetServices(Services{Generation: svc})

	out, err := execute(t, "", "generate", "run", "gen-1", "--force", "-o", "table")
	require.NoError(t, err)
	assert.True(t, svc.runOpts.Force)
	assert.Contains(t, out, "gen-1")
	assert.Contains(t, out, "completed (100%)")
}

func TestGenerateRun_CreatesFromProjectPeriod(t *testing.T) {
	svc := newMockGenerationService()
	SetServices(Services{Generation: svc})

	out, err := execute(t, "", "generate", "run", "--project", "proj-2", "--period", "2024-06", "-o", "json")
	require.NoError(t, err)
	assert.False(t, svc.runOpts.Force)

	var rec domain.GenerationRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "proj-2", rec.ProjectID)
	assert.Equal(t, domain.StatusCompleted, rec.Status)
}

func TestGenerateRun_NeedsIDOrProjectPeriod(t *testing.T) {
	SetServices(Services{Generation: newMockGenerationService()})

	_, err := execute(t, "", "generate", "run", "--project", "proj-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--project and --period")
}

func TestGenerateStatus_NotFound(t *testing.T) {
	SetServices(Services{Generation: newMockGenerationService()})

	_, err := execute(t, "", "generate", "status", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateStatus_ShowsIssues(t *testing.T) {
	rec := domain.GenerationRecord{
		ID:          "gen-1",
		ProjectID:   "p",
		PeriodKey:   "2024-05",
		Status:      domain.StatusCompleted,
		Progress:    100,
		CurrentStep: domain.StepCompleted,
		PartialResults: domain.PartialResults{
			ValidationReport: &domain.ValidationReport{
				OverallScore: 0.6,
				Issues: []domain.ValidationIssue{
					{Field: "PROJETO_NOME", Severity: domain.SeverityError, Type: domain.IssueMissing, Message: "missing"},
				},
			},
		},
	}
	SetServices(Services{Generation: newMockGenerationService(rec)})

	out, err := execute(t, "", "generate", "status", "gen-1", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "60%")
	assert.NotContains(t, out, "approved")
	assert.Contains(t, out, "PROJETO_NOME")
}

func TestGenerateCancel_Completed(t *testing.T) {
	svc := newMockGenerationService(domain.GenerationRecord{ID: "gen-1", Status: domain.StatusCompleted})
	SetServices(Services{Generation: svc})

	_, err := execute(t, "", "generate", "cancel", "gen-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPrecondition)
}

func TestGenerateCancel(t *testing.T) {
	svc := newMockGenerationService(domain.GenerationRecord{ID: "gen-1", Status: domain.StatusProcessing})
	SetServices(Services{Generation: svc})

	out, err := execute(t, "", "generate", "cancel", "gen-1", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Generation gen-1 is cancelled.")
}

func TestGenerateReprocess(t *testing.T) {
	svc := &mockReprocessService{}
	SetServices(Services{Reprocess: svc})

	out, err := execute(t, "", "generate", "reprocess", "gen-1",
		"-s", "atividades", "-s", "resultados", "-r", "new evidence", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, []domain.SectionName{domain.SectionActivities, domain.SectionResults}, svc.sections)
	assert.Equal(t, "new evidence", svc.reason)
	assert.Contains(t, out, `"generationId": "gen-1"`)
}

func TestGenerateReprocess_InvalidSection(t *testing.T) {
	svc := &mockReprocessService{}
	SetServices(Services{Reprocess: svc})

	_, err := execute(t, "", "generate", "reprocess", "gen-1", "-s", "budget")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, svc.sections)
}

func TestGenerateList(t *testing.T) {
	svc := newMockGenerationService(
		domain.GenerationRecord{ID: "gen-1", ProjectID: "a"},
		domain.GenerationRecord{ID: "gen-2", ProjectID: "b"},
	)
	SetServices(Services{Generation: svc})

	out, err := execute(t, "", "generate", "list", "--project", "b", "-n", "5", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, 5, svc.listLimit)

	var recs []domain.GenerationRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "gen-2", recs[0].ID)
}

func TestGenerateList_Empty(t *testing.T) {
	SetServices(Services{Generation: newMockGenerationService()})

	out, err := execute(t, "", "generate", "list", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	out, err = execute(t, "", "generate", "list", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "No generations found.")
}

func TestScoreText(t *testing.T) {
	rec := &domain.GenerationRecord{}
	assert.Equal(t, "-", scoreText(rec))

	rec.PartialResults.ValidationReport = &domain.ValidationReport{OverallScore: 0.91, Approved: true}
	assert.Equal(t, "91% approved", scoreText(rec))
}
