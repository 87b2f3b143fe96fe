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

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRecord indicates a transformed record violates an
	// invariant (empty id, wrong datasource).
	ErrInvalidRecord = errors.New("invalid record")

	// ErrDuplicateRecord indicates a transform emitted the same record id
	// twice within one upload session.
	ErrDuplicateRecord = errors.New("duplicate record id")

	// ErrRunInProgress indicates an indexing run is already running for
	// this connector.
	ErrRunInProgress = errors.New("indexing run in progress")

	// ErrSessionClosed indicates a send was attempted on a closed upload
	// session or after the last page was already sent.
	ErrSessionClosed = errors.New("upload session closed")

	// ErrIncompleteSession indicates a session was closed without a
	// last-page send. Always a programming error in orchestration.
	ErrIncompleteSession = errors.New("upload session closed before last page")
)

// ConfigError is a fatal configuration failure. It is never retried and
// surfaces before any network call is made.
type ConfigError struct {
	// Missing lists absent environment variables, if that is the cause.
	Missing []string

	// Reason describes the failure when Missing is empty.
	Reason string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		exports := make([]string, len(e.Missing))
		for i, v := range e.Missing {
			exports[i] = v + "=<value>"
		}
		return fmt.Sprintf("missing required environment variables: %s (set them before running: export %s)",
			strings.Join(e.Missing, ", "), strings.Join(exports, " "))
	}
	return e.Reason
}

// SourceFetchError indicates the caller's data source failed mid-run.
type SourceFetchError struct {
	// BatchIndex is the last fully emitted batch index, -1 if the failure
	// happened before any batch was emitted.
	BatchIndex int

	// Err is the underlying fetch failure.
	Err error
}

func (e *SourceFetchError) Error() string {
	if e.BatchIndex < 0 {
		return fmt.Sprintf("source fetch failed before first batch: %v", e.Err)
	}
	return fmt.Sprintf("source fetch failed after batch %d: %v", e.BatchIndex, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// TransformError indicates the caller's transform failed for a batch.
type TransformError struct {
	// BatchIndex is the batch whose transform failed.
	BatchIndex int

	// Err is the underlying transform failure.
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform failed for batch %d: %v", e.BatchIndex, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// UploadError indicates a page send failed after the retry policy was
// exhausted. The failing batch index is preserved for diagnostics and
// resume decisions.
type UploadError struct {
	// BatchIndex is the page index that failed.
	BatchIndex int

	// Err is the underlying transport or backend failure.
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed for batch %d: %v", e.BatchIndex, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
