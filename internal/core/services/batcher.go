package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
	"github.com/beaconsearch/connector-sdk/internal/logger"
)

const (
	// DefaultBatchSize is used when the connector does not configure one.
	DefaultBatchSize = 100

	// MaxBatchSize caps the configured batch size. Larger values are
	// clamped with a warning to keep upload request bodies bounded.
	MaxBatchSize = 10000
)

// normalizeBatchSize validates and clamps a configured batch size.
func normalizeBatchSize(size int) (int, error) {
	if size == 0 {
		return DefaultBatchSize, nil
	}
	if size < 0 {
		return 0, fmt.Errorf("%w: batch size must be positive, got %d", domain.ErrInvalidInput, size)
	}
	if size > MaxBatchSize {
		logger.Warn("batch size exceeds maximum, clamping", "configured", size, "max", MaxBatchSize)
		return MaxBatchSize, nil
	}
	return size, nil
}

// BatchIterator produces the batches of one run in order.
// Next returns false once the input is exhausted. After an error or
// exhaustion the iterator must not be used again.
type BatchIterator[T any] interface {
	Next(ctx context.Context) (domain.Batch[T], bool, error)
}

// SliceBatcher partitions an in-memory record set into batches.
// The total count is known up front, so the last batch is identifiable
// before emission.
type SliceBatcher[T any] struct {
	records []T
	size    int
	offset  int
	index   int
}

// NewSliceBatcher creates a batcher over a bounded record set.
// size zero selects DefaultBatchSize.
func NewSliceBatcher[T any](records []T, size int) (*SliceBatcher[T], error) {
	size, err := normalizeBatchSize(size)
	if err != nil {
		return nil, err
	}
	return &SliceBatcher[T]{records: records, size: size}, nil
}

// Next returns the next batch. Zero records yield zero batches.
func (b *SliceBatcher[T]) Next(ctx context.Context) (domain.Batch[T], bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Batch[T]{}, false, err
	}
	if b.offset >= len(b.records) {
		return domain.Batch[T]{}, false, nil
	}
	end := b.offset + b.size
	if end > len(b.records) {
		end = len(b.records)
	}
	batch := domain.Batch[T]{
		Index:   b.index,
		Records: b.records[b.offset:end],
		Last:    end == len(b.records),
	}
	b.offset = end
	b.index++
	return batch, true, nil
}

// StreamBatcher partitions a lazily-produced record stream into batches.
//
// The last batch can only be identified at end-of-input, so after filling
// a batch the batcher peeks one element ahead before emitting it. The
// peeked element is carried into the next batch, bounding buffered
// records at batch size + 1.
type StreamBatcher[T any] struct {
	records <-chan T
	errs    <-chan error
	size    int

	pending     T
	havePending bool
	emitted     int
	done        bool
}

// NewStreamBatcher creates a batcher over a record stream. The producer
// must close records on exhaustion and send at most one error on errs
// beforehand. size zero selects DefaultBatchSize.
func NewStreamBatcher[T any](records <-chan T, errs <-chan error, size int) (*StreamBatcher[T], error) {
	size, err := normalizeBatchSize(size)
	if err != nil {
		return nil, err
	}
	return &StreamBatcher[T]{records: records, errs: errs, size: size}, nil
}

// Next returns the next batch. A producer failure surfaces as a
// SourceFetchError naming the last fully emitted batch; the partially
// filled batch is discarded, never emitted.
func (b *StreamBatcher[T]) Next(ctx context.Context) (domain.Batch[T], bool, error) {
	if b.done {
		return domain.Batch[T]{}, false, nil
	}

	buf := make([]T, 0, b.size)
	if b.havePending {
		buf = append(buf, b.pending)
		b.havePending = false
	}

	for len(buf) < b.size {
		rec, ok, err := b.recv(ctx)
		if err != nil {
			b.done = true
			return domain.Batch[T]{}, false, b.fetchError(err)
		}
		if !ok {
			b.done = true
			if len(buf) == 0 {
				return domain.Batch[T]{}, false, nil
			}
			return b.emit(buf, true), true, nil
		}
		buf = append(buf, rec)
	}

	// Batch is full. Peek one element ahead to learn whether the stream
	// ends exactly here.
	rec, ok, err := b.recv(ctx)
	if err != nil {
		b.done = true
		return domain.Batch[T]{}, false, b.fetchError(err)
	}
	if !ok {
		b.done = true
		return b.emit(buf, true), true, nil
	}
	b.pending = rec
	b.havePending = true
	return b.emit(buf, false), true, nil
}

func (b *StreamBatcher[T]) emit(records []T, last bool) domain.Batch[T] {
	batch := domain.Batch[T]{Index: b.emitted, Records: records, Last: last}
	b.emitted++
	return batch
}

func (b *StreamBatcher[T]) fetchError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.SourceFetchError{BatchIndex: b.emitted - 1, Err: err}
}

// recv pulls one record from the stream. ok is false on clean exhaustion.
func (b *StreamBatcher[T]) recv(ctx context.Context) (rec T, ok bool, err error) {
	var zero T
	for {
		select {
		case <-ctx.Done():
			return zero, false, ctx.Err()
		case r, open := <-b.records:
			if !open {
				// Producer finished; a final error may still be queued.
				select {
				case e, eopen := <-b.errs:
					if eopen && e != nil {
						return zero, false, e
					}
				default:
				}
				return zero, false, nil
			}
			return r, true, nil
		case e, open := <-b.errs:
			if open && e != nil {
				return zero, false, e
			}
			// Error channel closed without an error: keep draining records.
			b.errs = nil
		}
	}
}
