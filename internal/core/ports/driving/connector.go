package driving

import (
	"context"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
)

// RunOptions parameterise one indexing run.
type RunOptions struct {
	// Mode selects full or incremental indexing. Defaults to full.
	Mode domain.IndexingMode

	// ForceRestart instructs the backend to discard any prior incomplete
	// upload session with the same upload id before accepting new pages.
	// Use after a crashed run when a fresh full resend is required.
	ForceRestart bool

	// UploadID overrides the generated upload id. Leave empty to let the
	// session generate one.
	UploadID string
}

// RunStatus is a point-in-time snapshot of an indexing run.
type RunStatus struct {
	// Datasource is the connector name.
	Datasource string

	// State is the orchestration state machine position.
	State domain.RunState

	// RecordsProcessed counts source records consumed so far.
	RecordsProcessed int

	// RecordsSkipped counts records dropped by the skip-and-continue
	// transform policy.
	RecordsSkipped int

	// BatchesSent counts acknowledged page sends.
	BatchesSent int

	// LastBatchIndex is the index of the last acknowledged batch,
	// -1 before the first acknowledgement.
	LastBatchIndex int

	// UploadID identifies the current or most recent upload session.
	UploadID string

	// LastError describes the failure when State is failed.
	LastError string
}

// Connector is the public surface of a configured connector.
// Both entry points are idempotent and safe to invoke repeatedly;
// deployment wrappers (cron, serverless, workflow engines) call nothing
// else.
type Connector interface {
	// Name returns the datasource name.
	Name() string

	// IndexData runs one indexing pass. Concurrent runs of the same
	// connector are rejected with domain.ErrRunInProgress.
	IndexData(ctx context.Context, opts RunOptions) error

	// ConfigureDatasource registers the datasource with the backend.
	ConfigureDatasource(ctx context.Context) error

	// Status reports the current run status.
	Status() RunStatus
}
