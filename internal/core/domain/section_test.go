package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllSections_Order(t *testing.T) {
	assert.Equal(t, []SectionName{
		SectionProjectData, SectionActivities, SectionResults, SectionStatus,
	}, AllSections())
}

func TestSectionOf(t *testing.T) {
	tests := []struct {
		field    string
		expected SectionName
		ok       bool
	}{
		{FieldProjectName, SectionProjectData, true},
		{FieldActivities, SectionActivities, true},
		{FieldIndicators, SectionResults, true},
		{FieldReferenceDocs, SectionStatus, true},
		{FieldPersonCPF, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			s, ok := SectionOf(tt.field)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, s)
		})
	}
}

func TestSectionOfKey(t *testing.T) {
	tests := []struct {
		key      string
		expected SectionName
		ok       bool
	}{
		{"PROJETO_NOME", SectionProjectData, true},
		{"NOME_ATIVIDADE[0]", SectionActivities, true},
		{"RESPONSAVEIS[2]", SectionActivities, true},
		{"CPF_RESPONSAVEL[0][1]", SectionActivities, true},
		{"PROJETO_NOME[0]", SectionActivities, false},
		{"CPF_RESPONSAVEL[0]", SectionActivities, false},
		{"STATUS_ATIVIDADE[0][0]", SectionActivities, false},
		{"CPF_RESPONSAVEL", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			k, err := ParseFieldKey(tt.key)
			require.NoError(t, err)
			s, ok := SectionOfKey(k)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, s)
			}
		})
	}
}

func TestParseSectionName(t *testing.T) {
	s, err := ParseSectionName(" Atividades ")
	require.NoError(t, err)
	assert.Equal(t, SectionActivities, s)

	_, err = ParseSectionName("anexos")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestFieldNamesFor(t *testing.T) {
	set := FieldNamesFor([]SectionName{SectionResults})
	assert.True(t, set.Has(FieldResults))
	assert.True(t, set.Has(FieldIndicators))
	assert.False(t, set.Has(FieldProjectName))
	assert.Empty(t, FieldNamesFor([]SectionName{"bogus"}))
}

func TestSectionName_FieldsIsCopy(t *testing.T) {
	f := SectionProjectData.Fields()
	f[0] = "MUTATED"
	assert.Equal(t, FieldProjectName, SectionProjectData.Fields()[0])
}

func TestActivity_Record(t *testing.T) {
	a := Activity{
		Name:   "Build",
		Status: "Done",
		Responsibles: []Responsible{
			{Name: "Ana", CPF: "123", Hours: 12},
		},
	}

	rec := a.Record()
	assert.Equal(t, "Build", rec[FieldActivityName])
	people, ok := rec[FieldResponsibles].([]any)
	require.True(t, ok)
	require.Len(t, people, 1)
	assert.Equal(t, "123", people[0].(map[string]any)[FieldPersonCPF])
	assert.Equal(t, 12.0, people[0].(map[string]any)[FieldPersonHours])
	assert.NotContains(t, rec, FieldActivitySource)

	a.Source = "work item #7"
	assert.Equal(t, "work item #7", a.Record()[FieldActivitySource])
}
