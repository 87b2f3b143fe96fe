package driven

import (
	"context"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
)

// IndexerClient is the bulk indexing API surface the SDK depends on.
// The production implementation talks HTTP to the Beacon backend; tests
// substitute a recording mock.
//
// The backend deduplicates page sends by (upload id, page index), so
// retrying an identical send is safe.
type IndexerClient interface {
	// BulkIndexDocuments uploads one page of documents.
	BulkIndexDocuments(ctx context.Context, page domain.Page[domain.DocumentRecord]) error

	// BulkIndexIdentities uploads one page of identities.
	BulkIndexIdentities(ctx context.Context, page domain.Page[domain.IdentityRecord]) error

	// ConfigureDatasource registers or updates the datasource definition.
	// Idempotent and safe to invoke repeatedly.
	ConfigureDatasource(ctx context.Context, cfg domain.DatasourceConfig) error

	// ReconcileDeletions asks the backend to remove documents that were
	// not re-submitted in the given upload session. Only called after a
	// full-mode session closed successfully.
	ReconcileDeletions(ctx context.Context, datasource, uploadID string) error
}
