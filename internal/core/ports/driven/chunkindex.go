package driven

import (
	"context"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

// ChunkIndex stores chunk rows for the retrieval collaborator.
// Search over the rows is not part of this contract.
type ChunkIndex interface {
	// StoreChunks replaces every row of sourceID with chunks.
	StoreChunks(ctx context.Context, sourceID string, chunks []domain.IndexedChunk) error

	// DeleteBySource removes every row of sourceID.
	DeleteBySource(ctx context.Context, sourceID string) error

	// CountBySource returns the number of rows stored for sourceID.
	CountBySource(ctx context.Context, sourceID string) (int, error)
}
