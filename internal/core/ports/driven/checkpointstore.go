package driven

import (
	"context"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
)

// CheckpointStore persists the incremental indexing cursor per datasource.
// The SDK reads the checkpoint when planning an incremental run and saves
// a new one after a successful run; everything else about the cursor is
// the caller's business.
type CheckpointStore interface {
	// Save stores or updates the checkpoint for a datasource.
	Save(ctx context.Context, checkpoint domain.Checkpoint) error

	// Get retrieves the checkpoint for a datasource.
	// Returns domain.ErrNotFound if none has been saved.
	Get(ctx context.Context, datasource string) (*domain.Checkpoint, error)

	// Delete removes the checkpoint for a datasource.
	Delete(ctx context.Context, datasource string) error
}
