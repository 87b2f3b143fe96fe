package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/beaconsearch/connector-sdk/internal/core/ports/driven"
)

// Ensure Prometheus implements the port.
var _ driven.MetricsSink = (*Prometheus)(nil)

// Prometheus exports per-call metrics to a Prometheus registry.
type Prometheus struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
	attempts *prometheus.CounterVec
}

// NewPrometheus creates a sink registered with reg. A nil reg uses the
// default registerer.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	sink := &Prometheus{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "beacon_connector_call_duration_seconds",
			Help: "Indexing API call duration in seconds, including retries.",
		}, []string{"call", "outcome"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_connector_calls_total",
			Help: "Total indexing API calls.",
		}, []string{"call", "outcome"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beacon_connector_call_attempts_total",
			Help: "Total indexing API call attempts, counting retries.",
		}, []string{"call"}),
	}

	for _, c := range []prometheus.Collector{sink.duration, sink.calls, sink.attempts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return sink, nil
}

// Observe records one call observation.
func (p *Prometheus) Observe(obs driven.Observation) {
	p.duration.WithLabelValues(obs.Call, obs.Outcome).Observe(obs.Duration.Seconds())
	p.calls.WithLabelValues(obs.Call, obs.Outcome).Inc()
	p.attempts.WithLabelValues(obs.Call).Add(float64(obs.Attempts))
}
