package driven

import (
	"context"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

// RenderRequest is the input handed to a DocumentRenderer.
type RenderRequest struct {
	GenerationID string
	ProjectID    string
	PeriodKey    string
	Placeholders domain.PlaceholderMap
}

// RenderedDocument describes the document a renderer produced.
type RenderedDocument struct {
	Name     string
	Location string
	Bytes    int64
}

// DocumentRenderer turns the final placeholder map into a document.
type DocumentRenderer interface {
	Render(ctx context.Context, req RenderRequest) (*RenderedDocument, error)
}
