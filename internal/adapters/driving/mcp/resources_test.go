package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestParseGenerationURI(t *testing.T) {
	tests := []struct {
		name   string
		uri    string
		wantID string
		wantPt string
	}{
		{"record", "azurebridge://generations/gen-1", "gen-1", ""},
		{"placeholders", "azurebridge://generations/gen-1/placeholders", "gen-1", "placeholders"},
		{"invalid prefix", "other://generations/gen-1", "", ""},
		{"listing", "azurebridge://generations", "", ""},
		{"empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, part := parseGenerationURI(tt.uri)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantPt, part)
		})
	}
}

func TestServer_handleGenerationsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists summaries", func(t *testing.T) {
		server := newTestServer(t, &Ports{Generation: newMockGenerationService(validatedRecord())})

		result, err := server.handleGenerationsResource(ctx, readRequest(uriScheme+"generations"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var infos []GenerationOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
		require.Len(t, infos, 1)
		assert.Equal(t, "gen-1", infos[0].ID)
	})

	t.Run("list error", func(t *testing.T) {
		gen := newMockGenerationService()
		gen.err = errors.New("db locked")
		server := newTestServer(t, &Ports{Generation: gen})

		_, err := server.handleGenerationsResource(ctx, readRequest(uriScheme+"generations"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db locked")
	})
}

func TestServer_handleGenerationResource(t *testing.T) {
	ctx := context.Background()
	rec := validatedRecord()
	rec.PartialResults.PlaceholderMap = domain.PlaceholderMap{"PROJETO_NOME": "Acme"}
	server := newTestServer(t, &Ports{Generation: newMockGenerationService(rec)})

	t.Run("full record", func(t *testing.T) {
		result, err := server.handleGenerationResource(ctx, readRequest(uriScheme+"generations/gen-1"))
		require.NoError(t, err)

		var got domain.GenerationRecord
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, "acme", got.ProjectID)
	})

	t.Run("placeholders", func(t *testing.T) {
		result, err := server.handleGenerationResource(ctx, readRequest(uriScheme+"generations/gen-1/placeholders"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"PROJETO_NOME": "Acme"}`, result.Contents[0].Text)
	})

	t.Run("unknown generation", func(t *testing.T) {
		_, err := server.handleGenerationResource(ctx, readRequest(uriScheme+"generations/nope"))
		require.Error(t, err)
	})

	t.Run("unknown part", func(t *testing.T) {
		_, err := server.handleGenerationResource(ctx, readRequest(uriScheme+"generations/gen-1/other"))
		require.Error(t, err)
	})
}
