package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

func TestParseOverrideValue(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		asText bool
		want   any
	}{
		{"plain text", "Projeto Alfa", false, "Projeto Alfa"},
		{"number", "42", false, float64(42)},
		{"quoted string", `"42"`, false, "42"},
		{"list", `["a","b"]`, false, []any{"a", "b"}},
		{"object", `{"nome":"Ana"}`, false, map[string]any{"nome": "Ana"}},
		{"as text keeps json", "42", true, "42"},
		{"blank", "  ", false, "  "},
		{"broken json", `{"nome":`, false, `{"nome":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseOverrideValue(tt.raw, tt.asText))
		})
	}
}

func TestValueText(t *testing.T) {
	assert.Equal(t, "-", valueText(nil))
	assert.Equal(t, "texto", valueText("texto"))
	assert.Equal(t, "3", valueText(float64(3)))
	assert.Equal(t, `["a","b"]`, valueText([]any{"a", "b"}))
}

func TestOverrideSet(t *testing.T) {
	svc := &mockOverrideService{}
	SetServices(Services{Overrides: svc})

	out, err := execute(t, "", "override", "set", "gen-1", "PROJETO_NOME", "Projeto Alfa",
		"--reason", "typo", "-o", "json")
	require.NoError(t, err)

	var o domain.Override
	require.NoError(t, json.Unmarshal([]byte(out), &o))
	assert.Equal(t, "PROJETO_NOME", o.FieldKey)
	assert.Equal(t, "Projeto Alfa", o.NewValue)
	assert.Equal(t, "typo", o.Reason)
}

func TestOverrideSet_TextFlag(t *testing.T) {
	svc := &mockOverrideService{}
	SetServices(Services{Overrides: svc})

	_, err := execute(t, "", "override", "set", "gen-1", "NOME_ATIVIDADE[0]", "123", "--text", "-o", "table")
	require.NoError(t, err)
	assert.Equal(t, "123", svc.overrides["NOME_ATIVIDADE[0]"].NewValue)
}

func TestOverrideRm(t *testing.T) {
	svc := &mockOverrideService{overrides: domain.Overrides{
		"PROJETO_NOME": {FieldKey: "PROJETO_NOME", NewValue: "x"},
	}}
	SetServices(Services{Overrides: svc})

	out, err := execute(t, "", "override", "rm", "gen-1", "PROJETO_NOME", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Override for PROJETO_NOME removed from gen-1.")
	assert.Empty(t, svc.overrides)

	_, err = execute(t, "", "override", "rm", "gen-1", "PROJETO_NOME")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOverrideList(t *testing.T) {
	svc := &mockOverrideService{overrides: domain.Overrides{
		"PROJETO_NOME": {FieldKey: "PROJETO_NOME", NewValue: "Alfa", OriginalValue: "Alpha", Reason: "grafia"},
	}}
	SetServices(Services{Overrides: svc})

	out, err := execute(t, "", "override", "list", "gen-1", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "PROJETO_NOME")
	assert.Contains(t, out, "grafia")

	svc.overrides = nil
	out, err = execute(t, "", "override", "list", "gen-1", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestOverride_NotConfigured(t *testing.T) {
	_, err := execute(t, "", "override", "list", "gen-1")
	assert.ErrorIs(t, err, errOverridesNotConfigured)
}
