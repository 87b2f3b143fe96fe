package domain

import (
	"fmt"
	"time"
)

// IndexingMode selects full-snapshot or delta indexing semantics.
type IndexingMode string

const (
	// ModeFull re-indexes the entire record set. The run is authoritative:
	// documents not re-submitted are eligible for deletion reconciliation.
	ModeFull IndexingMode = "full"

	// ModeIncremental indexes only records changed since a checkpoint.
	// No deletion inference is made.
	ModeIncremental IndexingMode = "incremental"
)

// ParseIndexingMode parses a mode string as accepted by the CLI.
func ParseIndexingMode(s string) (IndexingMode, error) {
	switch IndexingMode(s) {
	case ModeFull:
		return ModeFull, nil
	case ModeIncremental:
		return ModeIncremental, nil
	default:
		return "", fmt.Errorf("%w: unknown indexing mode %q", ErrInvalidInput, s)
	}
}

// Checkpoint marks the point up to which a datasource has been indexed.
// The cursor is opaque to the SDK; the caller's data source interprets it.
type Checkpoint struct {
	// Datasource is the connector name the checkpoint belongs to.
	Datasource string

	// Cursor is the opaque position marker passed to the next
	// incremental fetch.
	Cursor string

	// LastRun is when the run that produced this checkpoint started.
	LastRun time.Time
}

// FetchPlan is the planner's decision for one indexing run.
type FetchPlan struct {
	// Since is the checkpoint to fetch from. Nil means fetch everything.
	Since *Checkpoint

	// ExpectDeletions reports whether the run should reconcile deletions
	// after the upload session closes successfully. Only ever true for
	// full runs: deletion inference is only safe when the whole record
	// universe was observed in one pass.
	ExpectDeletions bool
}

// RunState is the orchestration state machine position of a run.
type RunState string

const (
	RunStateIdle         RunState = "idle"
	RunStateFetching     RunState = "fetching"
	RunStateTransforming RunState = "transforming"
	RunStateUploading    RunState = "uploading"
	RunStateFinalizing   RunState = "finalizing"
	RunStateDone         RunState = "done"
	RunStateFailed       RunState = "failed"
)
