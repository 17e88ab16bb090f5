package mcp

import (
	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Generation manages the generation lifecycle.
	Generation driving.GenerationService

	// Reprocess re-runs selected sections of a generation.
	Reprocess driving.ReprocessService

	// Overrides manages manual field corrections.
	Overrides driving.OverrideService

	// Chunker splits text for the chunk_text tool.
	Chunker driving.Chunker
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Generation == nil {
		return ErrMissingGenerationService
	}
	// Reprocess, Overrides and Chunker are optional; their tools report errUnavailable.
	return nil
}
