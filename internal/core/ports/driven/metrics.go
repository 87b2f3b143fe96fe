package driven

import "time"

// Call outcomes reported to the metrics sink.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Observation describes one instrumented network call against the
// indexing backend.
type Observation struct {
	// Call is the logical call name (e.g., "bulk_index_documents").
	Call string

	// Duration is the total wall time including retries.
	Duration time.Duration

	// Attempts is how many times the call was tried.
	Attempts int

	// Outcome is OutcomeSuccess or OutcomeError.
	Outcome string
}

// MetricsSink receives one Observation per network call.
// Implementations must be safe for concurrent use.
type MetricsSink interface {
	Observe(obs Observation)
}
