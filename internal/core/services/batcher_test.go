package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
)

func intRecords(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func drain[T any](t *testing.T, it BatchIterator[T]) []domain.Batch[T] {
	t.Helper()
	var batches []domain.Batch[T]
	for {
		batch, ok, err := it.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			return batches
		}
		batches = append(batches, batch)
	}
}

func TestNormalizeBatchSize(t *testing.T) {
	t.Run("zero selects default", func(t *testing.T) {
		size, err := normalizeBatchSize(0)
		require.NoError(t, err)
		assert.Equal(t, DefaultBatchSize, size)
	})

	t.Run("negative rejected", func(t *testing.T) {
		_, err := normalizeBatchSize(-1)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("oversize clamped", func(t *testing.T) {
		size, err := normalizeBatchSize(MaxBatchSize + 500)
		require.NoError(t, err)
		assert.Equal(t, MaxBatchSize, size)
	})

	t.Run("valid size kept", func(t *testing.T) {
		size, err := normalizeBatchSize(250)
		require.NoError(t, err)
		assert.Equal(t, 250, size)
	})
}

func TestSliceBatcher_PartitionsRecords(t *testing.T) {
	b, err := NewSliceBatcher(intRecords(205), 100)
	require.NoError(t, err)

	batches := drain(t, b)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Records, 100)
	assert.Len(t, batches[1].Records, 100)
	assert.Len(t, batches[2].Records, 5)

	for i, batch := range batches {
		assert.Equal(t, i, batch.Index)
		assert.Equal(t, i == len(batches)-1, batch.Last)
	}
}

func TestSliceBatcher_ExactMultiple(t *testing.T) {
	b, err := NewSliceBatcher(intRecords(200), 100)
	require.NoError(t, err)

	batches := drain(t, b)
	require.Len(t, batches, 2)
	assert.Len(t, batches[1].Records, 100)
	assert.True(t, batches[1].Last)
	assert.False(t, batches[0].Last)
}

func TestSliceBatcher_SingleBatch(t *testing.T) {
	b, err := NewSliceBatcher(intRecords(3), 100)
	require.NoError(t, err)

	batches := drain(t, b)
	require.Len(t, batches, 1)
	assert.True(t, batches[0].Last)
	assert.Equal(t, 0, batches[0].Index)
}

func TestSliceBatcher_Empty(t *testing.T) {
	b, err := NewSliceBatcher([]int(nil), 100)
	require.NoError(t, err)

	batches := drain(t, b)
	assert.Empty(t, batches)
}

func TestSliceBatcher_CancelledContext(t *testing.T) {
	b, err := NewSliceBatcher(intRecords(10), 5)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = b.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// countingProducer streams n records and reports how many were consumed,
// so the test can verify the one-ahead buffering bound.
func countingProducer(n int) (<-chan int, <-chan error, *atomic.Int64) {
	records := make(chan int)
	errs := make(chan error, 1)
	sent := new(atomic.Int64)
	go func() {
		defer close(records)
		defer close(errs)
		for i := 0; i < n; i++ {
			records <- i
			sent.Store(int64(i + 1))
		}
	}()
	return records, errs, sent
}

func TestStreamBatcher_PartitionsStream(t *testing.T) {
	records, errs, _ := countingProducer(205)
	b, err := NewStreamBatcher(records, errs, 100)
	require.NoError(t, err)

	batches := drain(t, b)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Records, 100)
	assert.Len(t, batches[1].Records, 100)
	assert.Len(t, batches[2].Records, 5)
	assert.True(t, batches[2].Last)
	assert.False(t, batches[0].Last)
	assert.False(t, batches[1].Last)
}

func TestStreamBatcher_ExactMultipleEndsOnLast(t *testing.T) {
	records, errs, _ := countingProducer(200)
	b, err := NewStreamBatcher(records, errs, 100)
	require.NoError(t, err)

	batches := drain(t, b)
	require.Len(t, batches, 2)
	assert.True(t, batches[1].Last)
	assert.Len(t, batches[1].Records, 100)
}

func TestStreamBatcher_BuffersAtMostOneExtra(t *testing.T) {
	records, errs, sent := countingProducer(500)
	b, err := NewStreamBatcher(records, errs, 100)
	require.NoError(t, err)

	_, ok, err := b.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	// One full batch plus the single peeked element.
	assert.LessOrEqual(t, sent.Load(), int64(101))
}

func TestStreamBatcher_Empty(t *testing.T) {
	records, errs, _ := countingProducer(0)
	b, err := NewStreamBatcher(records, errs, 100)
	require.NoError(t, err)

	batches := drain(t, b)
	assert.Empty(t, batches)
}

func TestStreamBatcher_MidStreamFailure(t *testing.T) {
	records := make(chan int)
	errs := make(chan error, 1)
	go func() {
		for i := 0; i < 130; i++ {
			records <- i
		}
		errs <- fmt.Errorf("wiki api: connection reset")
		close(errs)
		close(records)
	}()

	b, err := NewStreamBatcher(records, errs, 100)
	require.NoError(t, err)
	ctx := context.Background()

	batch, ok, err := b.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, batch.Records, 100)

	// The partial second batch is discarded; the error names the last
	// fully emitted batch.
	_, ok, err = b.Next(ctx)
	require.Error(t, err)
	assert.False(t, ok)

	var fetchErr *domain.SourceFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 0, fetchErr.BatchIndex)

	// Iterator is exhausted after failure.
	_, ok, err = b.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStreamBatcher_FailureBeforeFirstBatch(t *testing.T) {
	records := make(chan int)
	errs := make(chan error, 1)
	errs <- errors.New("auth expired")
	close(errs)
	close(records)

	b, err := NewStreamBatcher(records, errs, 100)
	require.NoError(t, err)

	_, _, err = b.Next(context.Background())
	var fetchErr *domain.SourceFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, -1, fetchErr.BatchIndex)
}

func TestStreamBatcher_ContextCancelPassesThrough(t *testing.T) {
	records := make(chan int)
	errs := make(chan error, 1)

	b, err := NewStreamBatcher(records, errs, 100)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = b.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	var fetchErr *domain.SourceFetchError
	assert.False(t, errors.As(err, &fetchErr))
}
