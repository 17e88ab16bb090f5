package driving

import (
	"context"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

// Chunker splits source text into bounded, overlapping chunks.
type Chunker interface {
	Chunk(input domain.SourceText) []domain.Chunk
}

// IngestService feeds chunked source text into the retrieval index.
type IngestService interface {
	// Ingest chunks, embeds and stores every source. One failing source
	// does not stop the others; failures are listed in the report.
	Ingest(ctx context.Context, sources []domain.SourceText) (*IngestReport, error)

	// Remove deletes every indexed row of a source.
	Remove(ctx context.Context, sourceID string) error
}

// IngestReport summarises an ingestion batch.
type IngestReport struct {
	Sources  int               `json:"sources"`
	Chunks   int               `json:"chunks"`
	Embedded int               `json:"embedded"`
	Failures map[string]string `json:"failures,omitempty"`
}
