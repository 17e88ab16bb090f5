package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultIngestConcurrency is the worker pool size when none is configured.
const DefaultIngestConcurrency = 4

// IngestService chunks source text and stores it in the retrieval index.
type IngestService struct {
	chunker     driving.Chunker
	index       driven.ChunkIndex
	embedder    driven.EmbeddingService
	concurrency int
	newID       func() string
}

// NewIngestService creates a new ingest service.
// The embedder is optional - if nil, chunks are stored without vectors.
func NewIngestService(chunker driving.Chunker, index driven.ChunkIndex, embedder driven.EmbeddingService, concurrency int) *IngestService {
	if concurrency <= 0 {
		concurrency = DefaultIngestConcurrency
	}
	return &IngestService{
		chunker:     chunker,
		index:       index,
		embedder:    embedder,
		concurrency: concurrency,
		newID:       uuid.NewString,
	}
}

type ingestResult struct {
	chunks   int
	embedded int
	err      error
}

// Ingest processes sources on a bounded worker pool. Each worker only writes
// its own result slot.
func (s *IngestService) Ingest(ctx context.Context, sources []domain.SourceText) (*driving.IngestReport, error) {
	if s.index == nil {
		return nil, errors.New("chunk index not configured")
	}

	results := make([]ingestResult, len(sources))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = ingestResult{err: err}
				return nil
			}
			results[i] = s.ingestOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	report := &driving.IngestReport{Sources: len(sources)}
	for i, r := range results {
		if r.err != nil {
			if report.Failures == nil {
				report.Failures = make(map[string]string)
			}
			report.Failures[sourceLabel(sources[i], i)] = r.err.Error()
			continue
		}
		report.Chunks += r.chunks
		report.Embedded += r.embedded
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	logger.Info("ingest: %d sources, %d chunks, %d embedded, %d failed",
		report.Sources, report.Chunks, report.Embedded, len(report.Failures))
	return report, nil
}

func (s *IngestService) ingestOne(ctx context.Context, src domain.SourceText) ingestResult {
	sourceID := src.SourceID()
	if sourceID == "" {
		return ingestResult{err: fmt.Errorf("%w: source has no id or name", domain.ErrInvalidInput)}
	}

	chunks := s.chunker.Chunk(src)
	if len(chunks) == 0 {
		if err := s.index.DeleteBySource(ctx, sourceID); err != nil {
			return ingestResult{err: fmt.Errorf("clear %s: %w", sourceID, err)}
		}
		return ingestResult{}
	}

	vectors := s.embed(ctx, sourceID, chunks)

	rows := make([]domain.IndexedChunk, len(chunks))
	embedded := 0
	for i, c := range chunks {
		rows[i] = domain.IndexedChunk{
			ID:       s.newID(),
			SourceID: sourceID,
			Chunk:    c,
		}
		if vectors != nil {
			rows[i].Embedding = vectors[i]
			embedded++
		}
	}

	if err := s.index.StoreChunks(ctx, sourceID, rows); err != nil {
		return ingestResult{err: fmt.Errorf("store %s: %w", sourceID, err)}
	}
	logger.Debug("ingest: %s stored %d chunks", sourceID, len(rows))
	return ingestResult{chunks: len(rows), embedded: embedded}
}

// embed returns one vector per chunk, or nil when embeddings are unavailable.
func (s *IngestService) embed(ctx context.Context, sourceID string, chunks []domain.Chunk) [][]float32 {
	if s.embedder == nil {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		logger.Warn("ingest: %s stored without embeddings: %v", sourceID, err)
		return nil
	}
	if len(vectors) != len(chunks) {
		logger.Warn("ingest: %s stored without embeddings: got %d vectors for %d chunks", sourceID, len(vectors), len(chunks))
		return nil
	}
	return vectors
}

// Remove deletes every indexed row of a source.
func (s *IngestService) Remove(ctx context.Context, sourceID string) error {
	if s.index == nil {
		return errors.New("chunk index not configured")
	}
	if sourceID == "" {
		return fmt.Errorf("remove: %w: source id is required", domain.ErrInvalidInput)
	}
	if err := s.index.DeleteBySource(ctx, sourceID); err != nil {
		return fmt.Errorf("remove %s: %w", sourceID, err)
	}
	return nil
}

func sourceLabel(src domain.SourceText, i int) string {
	if id := src.SourceID(); id != "" {
		return id
	}
	return fmt.Sprintf("source[%d]", i)
}
