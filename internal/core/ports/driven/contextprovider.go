package driven

import (
	"context"

	"github.com/clodoaldo29/AzureBridge-sub002/internal/core/domain"
)

// ContextProvider supplies the project snapshot a generation works from.
// The snapshot is produced upstream by tracker synchronisation.
type ContextProvider interface {
	// BuildContext returns the snapshot for a project and period.
	// Returns domain.ErrNotFound when no snapshot exists.
	BuildContext(ctx context.Context, projectID, periodKey string) (*domain.GenerationContext, error)
}
