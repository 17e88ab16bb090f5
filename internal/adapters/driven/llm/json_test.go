package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summarySchema = `{
  "type": "object",
  "required": ["summary"],
  "properties": {
    "summary": {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

func TestDecodeObject(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		schema  string
		want    map[string]any
		wantErr string
	}{
		{
			name:   "plain object",
			raw:    `{"summary":"ok","confidence":0.9}`,
			schema: summarySchema,
			want:   map[string]any{"summary": "ok", "confidence": 0.9},
		},
		{
			name:   "fenced with chatter",
			raw:    "Here you go:\n```json\n{\"summary\": \"done\"}\n```\nAnything else?",
			schema: summarySchema,
			want:   map[string]any{"summary": "done"},
		},
		{
			name: "no schema skips validation",
			raw:  `{"anything": [1, 2]}`,
			want: map[string]any{"anything": []any{float64(1), float64(2)}},
		},
		{
			name:    "missing required property",
			raw:     `{"confidence": 0.5}`,
			schema:  summarySchema,
			wantErr: "does not match schema",
		},
		{
			name:    "out of range",
			raw:     `{"summary":"x","confidence":3}`,
			schema:  summarySchema,
			wantErr: "does not match schema",
		},
		{
			name:    "no object",
			raw:     "I cannot help with that.",
			wantErr: "no JSON object",
		},
		{
			name:    "broken json",
			raw:     `{"summary": }`,
			wantErr: "decode JSON response",
		},
		{
			name:    "broken schema",
			raw:     `{"summary":"x"}`,
			schema:  `{"type": 12}`,
			wantErr: "schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeObject(tt.raw, tt.schema)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONPrompt(t *testing.T) {
	p := JSONPrompt("Resuma.", summarySchema)
	assert.Contains(t, p, "Resuma.")
	assert.Contains(t, p, "single JSON object")
	assert.Contains(t, p, `"required": ["summary"]`)

	bare := JSONPrompt("Resuma.", "")
	assert.NotContains(t, bare, "JSON Schema")
}
