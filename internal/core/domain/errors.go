package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidContext indicates the upstream generation context is missing or malformed.
	// Extraction fails fast on it; no partial output is produced.
	ErrInvalidContext = errors.New("invalid generation context")

	// ErrPrecondition indicates an operation needs state that does not exist yet,
	// e.g. reprocessing a generation that never completed a full run.
	ErrPrecondition = errors.New("precondition failed")

	// ErrRunInProgress indicates a pipeline or reprocessing run is already active for a generation.
	ErrRunInProgress = errors.New("run in progress")

	// ErrCancelled indicates the generation was cancelled.
	ErrCancelled = errors.New("generation cancelled")

	// ErrLLMUnavailable indicates the text-completion service is not configured.
	// Enrichment is skipped; the deterministic pipeline is unaffected.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Chunks are indexed without vectors.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRendererUnavailable indicates no document renderer is configured.
	ErrRendererUnavailable = errors.New("document renderer unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient indicates a temporary upstream failure (timeout, 5xx, overload).
	ErrTransient = errors.New("transient upstream error")
)

// ContextError reports which parts of a GenerationContext are malformed.
type ContextError struct {
	Problems []string
}

// Error implements error.
func (e *ContextError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidContext, strings.Join(e.Problems, "; "))
}

// Unwrap allows errors.Is(err, ErrInvalidContext).
func (e *ContextError) Unwrap() error {
	return ErrInvalidContext
}

// FieldKeyError reports a field key that does not match the key grammar.
type FieldKeyError struct {
	Key string
}

// Error implements error.
func (e *FieldKeyError) Error() string {
	return fmt.Sprintf("%s: malformed field key %q", ErrInvalidInput, e.Key)
}

// Unwrap allows errors.Is(err, ErrInvalidInput).
func (e *FieldKeyError) Unwrap() error {
	return ErrInvalidInput
}
