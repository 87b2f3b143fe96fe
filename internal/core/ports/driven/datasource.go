package driven

import (
	"context"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
)

// DataSource fetches all source records in one bounded call.
// Implement this when the full dataset fits in memory.
//
// since carries the checkpoint for incremental runs; nil means full fetch.
// Implementations must honour it.
type DataSource[S any] interface {
	GetSourceData(ctx context.Context, since *domain.Checkpoint) ([]S, error)
}

// StreamingSource lazily produces source records for datasets that should
// not be held in memory at once. The records channel must be closed when
// the source is exhausted; a fetch failure is sent on the error channel
// before both channels close. At most one error is sent.
type StreamingSource[S any] interface {
	StreamSourceData(ctx context.Context, since *domain.Checkpoint) (<-chan S, <-chan error)
}

// Transformer converts a batch of source records into transformed records.
// Transform is expected to be pure: no I/O contract is enforced, but it
// must not emit duplicate record ids within a run.
type Transformer[S, T any] interface {
	Transform(ctx context.Context, records []S) ([]T, error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc[S, T any] func(ctx context.Context, records []S) ([]T, error)

// Transform calls f.
func (f TransformerFunc[S, T]) Transform(ctx context.Context, records []S) ([]T, error) {
	return f(ctx, records)
}
