package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

// ChunkIndex implements driven.ChunkIndex on the chunks table.
type ChunkIndex struct {
	db *sql.DB
}

// StoreChunks replaces every row of sourceID in one transaction.
func (c *ChunkIndex) StoreChunks(ctx context.Context, sourceID string, chunks []domain.IndexedChunk) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	if len(chunks) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (id, source_id, chunk_index, content, token_count, metadata, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				source_id = excluded.source_id,
				chunk_index = excluded.chunk_index,
				content = excluded.content,
				token_count = excluded.token_count,
				metadata = excluded.metadata,
				embedding = excluded.embedding
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for _, row := range chunks {
			metadataJSON, err := json.Marshal(row.Chunk.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling chunk metadata: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, row.ID, sourceID, row.Chunk.ChunkIndex, row.Chunk.Content,
				row.Chunk.TokenCount, string(metadataJSON), float32SliceToBytes(row.Embedding)); err != nil {
				return fmt.Errorf("saving chunk: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteBySource removes every row of sourceID.
func (c *ChunkIndex) DeleteBySource(ctx context.Context, sourceID string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM chunks WHERE source_id = ?`, sourceID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// CountBySource returns the number of rows stored for sourceID.
func (c *ChunkIndex) CountBySource(ctx context.Context, sourceID string) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE source_id = ?`, sourceID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// ListBySource returns the rows of sourceID in chunk order.
func (c *ChunkIndex) ListBySource(ctx context.Context, sourceID string) ([]domain.IndexedChunk, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, source_id, chunk_index, content, token_count, metadata, embedding
		FROM chunks WHERE source_id = ?
		ORDER BY chunk_index
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var out []domain.IndexedChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			row           domain.IndexedChunk
			metadataJSON  string
			embeddingBlob []byte
		)
		if err := rows.Scan(&row.ID, &row.SourceID, &row.Chunk.ChunkIndex, &row.Chunk.Content,
			&row.Chunk.TokenCount, &metadataJSON, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &row.Chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
		row.Embedding = bytesToFloat32Slice(embeddingBlob)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return out, nil
}

// float32SliceToBytes packs a vector as little-endian float32s.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
