package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconsearch/connector-sdk/internal/core/ports/driven"
)

func TestPrometheus_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPrometheus(reg)
	require.NoError(t, err)

	sink.Observe(driven.Observation{
		Call:     "bulk_index_documents",
		Duration: 250 * time.Millisecond,
		Attempts: 2,
		Outcome:  driven.OutcomeSuccess,
	})
	sink.Observe(driven.Observation{
		Call:     "bulk_index_documents",
		Duration: time.Second,
		Attempts: 3,
		Outcome:  driven.OutcomeError,
	})

	calls := testutil.ToFloat64(sink.calls.WithLabelValues("bulk_index_documents", driven.OutcomeSuccess))
	assert.Equal(t, float64(1), calls)

	failed := testutil.ToFloat64(sink.calls.WithLabelValues("bulk_index_documents", driven.OutcomeError))
	assert.Equal(t, float64(1), failed)

	attempts := testutil.ToFloat64(sink.attempts.WithLabelValues("bulk_index_documents"))
	assert.Equal(t, float64(5), attempts)
}

func TestNewPrometheus_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg)
	require.NoError(t, err)

	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}

func TestNoop_Observe(t *testing.T) {
	// Must not panic.
	Noop{}.Observe(driven.Observation{Call: "x"})
}
