// Package metrics provides MetricsSink implementations: a no-op default
// and a Prometheus-backed sink.
package metrics

import "github.com/beaconsearch/connector-sdk/internal/core/ports/driven"

// Ensure Noop implements the port.
var _ driven.MetricsSink = Noop{}

// Noop discards all observations. Used when no sink is configured.
type Noop struct{}

// Observe discards the observation.
func (Noop) Observe(driven.Observation) {}
