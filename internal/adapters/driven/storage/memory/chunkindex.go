package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
)

// Ensure ChunkIndex implements the interface.
var _ driven.ChunkIndex = (*ChunkIndex)(nil)

// ChunkIndex is an in-memory implementation of driven.ChunkIndex.
type ChunkIndex struct {
	mu   sync.RWMutex
	rows map[string][]domain.IndexedChunk
}

// NewChunkIndex creates a new in-memory chunk index.
func NewChunkIndex() *ChunkIndex {
	return &ChunkIndex{
		rows: make(map[string][]domain.IndexedChunk),
	}
}

// StoreChunks replaces every row of sourceID.
func (s *ChunkIndex) StoreChunks(_ context.Context, sourceID string, chunks []domain.IndexedChunk) error {
	rows := make([]domain.IndexedChunk, len(chunks))
	for i, c := range chunks {
		c.Embedding = slices.Clone(c.Embedding)
		c.Chunk.Metadata.URLs = slices.Clone(c.Chunk.Metadata.URLs)
		rows[i] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(rows) == 0 {
		delete(s.rows, sourceID)
		return nil
	}
	s.rows[sourceID] = rows
	return nil
}

// DeleteBySource removes every row of sourceID.
func (s *ChunkIndex) DeleteBySource(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, sourceID)
	return nil
}

// CountBySource returns the number of rows stored for sourceID.
func (s *ChunkIndex) CountBySource(_ context.Context, sourceID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[sourceID]), nil
}

// Rows returns a copy of the rows stored for sourceID.
func (s *ChunkIndex) Rows(sourceID string) []domain.IndexedChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rows[sourceID])
}
