// Package driven defines the interfaces that core calls OUT to
// collaborators. These are the "driven" or "secondary" ports in hexagonal
// architecture. Core services depend on these interfaces; connector
// authors and infrastructure adapters implement them.
//
// # Caller-supplied interfaces
//
//   - DataSource / StreamingSource: Fetches source records
//   - Transformer: Converts source records to indexable records
//
// # Infrastructure interfaces
//
//   - IndexerClient: The bulk indexing backend API
//   - CheckpointStore: Incremental cursor persistence
//   - MetricsSink: Per-call instrumentation events (optional; nil-safe
//     no-op adapter provided)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
