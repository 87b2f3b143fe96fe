// Package domain defines the core business entities for the connector SDK.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentRecord / IdentityRecord: Transformed records ready for upload
//   - Batch / Page: Bounded units of the bulk-upload pipeline
//   - IndexingMode / FetchPlan / Checkpoint: Run planning types
//   - RunState: Orchestration state machine positions
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
