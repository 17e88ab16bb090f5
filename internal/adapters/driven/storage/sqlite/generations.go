package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driven"
)

// GenerationStore implements driven.GenerationStore on the generations table.
// Timestamps are stored as UTC unix nanoseconds.
type GenerationStore struct {
	db *sql.DB
}

const generationColumns = `id, project_id, period_key, status, progress, current_step,
	error_message, partial_results, overrides, version, created_at, updated_at`

// Create inserts a new record.
func (s *GenerationStore) Create(ctx context.Context, rec domain.GenerationRecord) error {
	if rec.Version == 0 {
		rec.Version = 1
	}
	partial, overrides, err := encodeRecord(&rec)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (`+generationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.ProjectID, rec.PeriodKey, string(rec.Status), rec.Progress, string(rec.CurrentStep),
		rec.ErrorMessage, partial, overrides, rec.Version, toNanos(rec.CreatedAt), toNanos(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("creating generation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("creating generation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("generation %s: %w", rec.ID, domain.ErrAlreadyExists)
	}
	return nil
}

// Get retrieves a record by id.
func (s *GenerationStore) Get(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+generationColumns+` FROM generations WHERE id = ?`, id)
	rec, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("generation %s: %w", id, domain.ErrNotFound)
	}
	return rec, err
}

// Save replaces an existing record, bumps its version and writes the new
// version back into rec.
func (s *GenerationStore) Save(ctx context.Context, rec *domain.GenerationRecord) error {
	partial, overrides, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	var version int
	err = s.db.QueryRowContext(ctx, `
		UPDATE generations SET
			project_id = ?,
			period_key = ?,
			status = ?,
			progress = ?,
			current_step = ?,
			error_message = ?,
			partial_results = ?,
			overrides = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ?
		RETURNING version
	`, rec.ProjectID, rec.PeriodKey, string(rec.Status), rec.Progress, string(rec.CurrentStep),
		rec.ErrorMessage, partial, overrides, toNanos(rec.UpdatedAt), rec.ID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("generation %s: %w", rec.ID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("saving generation: %w", err)
	}

	rec.Version = version
	return nil
}

// List returns records newest first.
func (s *GenerationStore) List(ctx context.Context, filter driven.GenerationFilter) ([]domain.GenerationRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + generationColumns + ` FROM generations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying generations: %w", err)
	}
	defer rows.Close()

	var out []domain.GenerationRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating generations: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*domain.GenerationRecord, error) {
	var (
		rec                  domain.GenerationRecord
		status, step         string
		partial, overrides   string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&rec.ID, &rec.ProjectID, &rec.PeriodKey, &status, &rec.Progress, &step,
		&rec.ErrorMessage, &partial, &overrides, &rec.Version, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning generation: %w", err)
	}

	rec.Status = domain.GenerationStatus(status)
	rec.CurrentStep = domain.Step(step)
	rec.CreatedAt = fromNanos(createdAt)
	rec.UpdatedAt = fromNanos(updatedAt)

	if err := json.Unmarshal([]byte(partial), &rec.PartialResults); err != nil {
		return nil, fmt.Errorf("unmarshaling partial results: %w", err)
	}
	if err := json.Unmarshal([]byte(overrides), &rec.Overrides); err != nil {
		return nil, fmt.Errorf("unmarshaling overrides: %w", err)
	}
	if rec.Overrides == nil {
		rec.Overrides = make(domain.Overrides)
	}
	return &rec, nil
}

func encodeRecord(rec *domain.GenerationRecord) (partial, overrides string, err error) {
	p, err := json.Marshal(rec.PartialResults)
	if err != nil {
		return "", "", fmt.Errorf("marshalling partial results: %w", err)
	}
	o := rec.Overrides
	if o == nil {
		o = domain.Overrides{}
	}
	ov, err := json.Marshal(o)
	if err != nil {
		return "", "", fmt.Errorf("marshalling overrides: %w", err)
	}
	return string(p), string(ov), nil
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
