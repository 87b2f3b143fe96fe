package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driven"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driving"
	"github.com/beaconsearch/connector-sdk/internal/logger"
)

// EmptyRunPolicy decides what a run does when the source produces zero
// records.
type EmptyRunPolicy int

const (
	// EmptyRunSkip opens no session and makes no network call. An empty
	// full run would otherwise sweep every document in the datasource.
	EmptyRunSkip EmptyRunPolicy = iota

	// EmptyRunUpload sends a single empty page with both page flags set,
	// for backends that treat an empty full snapshot as authoritative.
	EmptyRunUpload
)

// TransformErrorPolicy decides how a transform failure is handled.
type TransformErrorPolicy int

const (
	// TransformAbort fails the run on the first transform error. The
	// default: a silently incomplete dataset is worse than a failed run.
	TransformAbort TransformErrorPolicy = iota

	// TransformSkip isolates failing records one at a time and continues
	// without them.
	TransformSkip
)

// PipelineConfig configures one connector pipeline.
type PipelineConfig struct {
	// Datasource is the connector name.
	Datasource string

	// BatchSize is the upload page size. Zero selects DefaultBatchSize;
	// values above MaxBatchSize are clamped.
	BatchSize int

	// EmptyRun is the zero-record policy.
	EmptyRun EmptyRunPolicy

	// OnTransformError is the transform failure policy.
	OnTransformError TransformErrorPolicy

	// SinceZero is the optional incremental default checkpoint.
	SinceZero *domain.Checkpoint
}

// pageItem carries one transformed page from the producer to the
// uploader in the overlapped streaming path.
type pageItem[T any] struct {
	index    int
	records  []T
	last     bool
	srcCount int
	skipped  int
}

// Pipeline is the orchestration state machine shared by document and
// identity connectors, over both bounded and streaming sources:
// fetch -> transform -> batch -> upload -> finalize.
//
// Exactly one of source/stream is set. The pipeline owns the upload
// session for the duration of one run; concurrent runs are rejected.
type Pipeline[S, T any] struct {
	cfg         PipelineConfig
	source      driven.DataSource[S]
	stream      driven.StreamingSource[S]
	transformer driven.Transformer[S, T]
	send        SendPageFunc[T]
	// reconcile sweeps documents not re-submitted in the session.
	// Nil for record kinds without deletion reconciliation.
	reconcile   func(ctx context.Context, uploadID string) error
	checkpoints driven.CheckpointStore
	validate    func(T) error
	recordID    func(T) string

	mu      sync.Mutex
	running bool
	status  driving.RunStatus
}

func newPipeline[S, T any](
	cfg PipelineConfig,
	source driven.DataSource[S],
	stream driven.StreamingSource[S],
	transformer driven.Transformer[S, T],
	send SendPageFunc[T],
) (*Pipeline[S, T], error) {
	if cfg.Datasource == "" {
		return nil, &domain.ConfigError{Reason: "connector requires a datasource name"}
	}
	if (source == nil) == (stream == nil) {
		return nil, &domain.ConfigError{Reason: "connector requires exactly one of a bounded or streaming data source"}
	}
	if transformer == nil {
		return nil, &domain.ConfigError{Reason: "connector requires a transformer"}
	}
	size, err := normalizeBatchSize(cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	cfg.BatchSize = size
	return &Pipeline[S, T]{
		cfg:         cfg,
		source:      source,
		stream:      stream,
		transformer: transformer,
		send:        send,
		status: driving.RunStatus{
			Datasource:     cfg.Datasource,
			State:          domain.RunStateIdle,
			LastBatchIndex: -1,
		},
	}, nil
}

// Run executes one indexing run. Any fatal error leaves the run in the
// failed state with the last acknowledged batch index preserved; the
// backend session is left as-is, orchestration never auto-retries the
// whole run.
func (p *Pipeline[S, T]) Run(ctx context.Context, opts driving.RunOptions) error {
	mode := opts.Mode
	if mode == "" {
		mode = domain.ModeFull
	}
	if mode != domain.ModeFull && mode != domain.ModeIncremental {
		return fmt.Errorf("%w: unknown indexing mode %q", domain.ErrInvalidInput, mode)
	}

	if !p.begin() {
		return domain.ErrRunInProgress
	}
	defer p.end()

	logger.Info("starting indexing run", "datasource", p.cfg.Datasource, "mode", mode)

	err := p.run(ctx, mode, opts)
	if err != nil {
		p.fail(err)
		logger.Error("indexing run failed", "datasource", p.cfg.Datasource, "error", err)
		return err
	}
	p.setState(domain.RunStateDone)
	status := p.Status()
	logger.Info("indexing run complete", "datasource", p.cfg.Datasource,
		"records", status.RecordsProcessed, "batches", status.BatchesSent)
	return nil
}

func (p *Pipeline[S, T]) run(ctx context.Context, mode domain.IndexingMode, opts driving.RunOptions) error {
	checkpoint, err := p.loadCheckpoint(ctx)
	if err != nil {
		return err
	}

	planner := ModePlanner{SinceZero: p.cfg.SinceZero}
	plan, err := planner.Plan(mode, checkpoint)
	if err != nil {
		return err
	}
	runStart := time.Now().UTC()

	p.setState(domain.RunStateFetching)
	batches, err := p.openBatches(ctx, plan)
	if err != nil {
		return err
	}

	session := OpenUploadSession(opts.UploadID, p.cfg.Datasource, opts.ForceRestart, p.send)
	p.setUploadID(session.UploadID())

	var uploaded bool
	if p.stream != nil {
		uploaded, err = p.uploadOverlapped(ctx, session, batches)
	} else {
		uploaded, err = p.uploadSequential(ctx, session, batches)
	}
	if err != nil {
		return err
	}

	if !uploaded {
		switch p.cfg.EmptyRun {
		case EmptyRunUpload:
			p.setState(domain.RunStateUploading)
			if err := session.Send(ctx, nil, true); err != nil {
				return err
			}
			p.ack(0, 0, 0)
			uploaded = true
		default:
			logger.Info("source produced no records, skipping upload session",
				"datasource", p.cfg.Datasource)
		}
	}

	if uploaded {
		if err := session.Close(); err != nil {
			return err
		}
	}

	p.setState(domain.RunStateFinalizing)

	// Deletion reconciliation runs only after the session closed
	// successfully, and only when this run observed the full universe.
	if uploaded && plan.ExpectDeletions && p.reconcile != nil {
		if err := p.reconcile(ctx, session.UploadID()); err != nil {
			return fmt.Errorf("reconcile deletions: %w", err)
		}
	}

	if p.checkpoints != nil {
		cp := domain.Checkpoint{
			Datasource: p.cfg.Datasource,
			Cursor:     runStart.Format(time.RFC3339Nano),
			LastRun:    runStart,
		}
		if err := p.checkpoints.Save(ctx, cp); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
	}
	return nil
}

func (p *Pipeline[S, T]) loadCheckpoint(ctx context.Context) (*domain.Checkpoint, error) {
	if p.checkpoints == nil {
		return nil, nil
	}
	checkpoint, err := p.checkpoints.Get(ctx, p.cfg.Datasource)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}
	return checkpoint, nil
}

func (p *Pipeline[S, T]) openBatches(ctx context.Context, plan domain.FetchPlan) (BatchIterator[S], error) {
	if p.stream != nil {
		records, errs := p.stream.StreamSourceData(ctx, plan.Since)
		return NewStreamBatcher(records, errs, p.cfg.BatchSize)
	}
	records, err := p.source.GetSourceData(ctx, plan.Since)
	if err != nil {
		return nil, &domain.SourceFetchError{BatchIndex: -1, Err: err}
	}
	return NewSliceBatcher(records, p.cfg.BatchSize)
}

// uploadSequential is the in-memory execution model: fetch, transform and
// upload happen in strict sequence per batch.
func (p *Pipeline[S, T]) uploadSequential(ctx context.Context, session *UploadSession[T], batches BatchIterator[S]) (bool, error) {
	seen := make(map[string]struct{})
	uploaded := false
	for {
		// Cancellation is honoured between batches, never mid-batch.
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}
		p.setState(domain.RunStateFetching)
		batch, ok, err := batches.Next(ctx)
		if err != nil {
			return uploaded, err
		}
		if !ok {
			return uploaded, nil
		}

		p.setState(domain.RunStateTransforming)
		records, skipped, err := p.transformBatch(ctx, batch)
		if err != nil {
			return uploaded, err
		}
		if err := p.checkRecords(records, seen, batch.Index); err != nil {
			return uploaded, err
		}

		p.setState(domain.RunStateUploading)
		if err := session.Send(ctx, records, batch.Last); err != nil {
			return uploaded, err
		}
		uploaded = true
		p.ack(len(batch.Records), skipped, batch.Index)
	}
}

// uploadOverlapped is the streaming execution model: producing and
// transforming batch K+1 overlaps uploading batch K. A single uploader
// goroutine keeps at most one send in flight, preserving strict page
// order within the session.
func (p *Pipeline[S, T]) uploadOverlapped(ctx context.Context, session *UploadSession[T], batches BatchIterator[S]) (bool, error) {
	p.setState(domain.RunStateUploading)

	g, gctx := errgroup.WithContext(ctx)
	pages := make(chan pageItem[T], 1)
	uploaded := false

	g.Go(func() error {
		defer close(pages)
		seen := make(map[string]struct{})
		for {
			batch, ok, err := batches.Next(gctx)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			records, skipped, err := p.transformBatch(gctx, batch)
			if err != nil {
				return err
			}
			if err := p.checkRecords(records, seen, batch.Index); err != nil {
				return err
			}
			item := pageItem[T]{
				index:    batch.Index,
				records:  records,
				last:     batch.Last,
				srcCount: len(batch.Records),
				skipped:  skipped,
			}
			select {
			case pages <- item:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	g.Go(func() error {
		for item := range pages {
			// Cancellation is honoured between batches.
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := session.Send(gctx, item.records, item.last); err != nil {
				return err
			}
			uploaded = true
			p.ack(item.srcCount, item.skipped, item.index)
		}
		return nil
	})

	err := g.Wait()
	return uploaded, err
}

func (p *Pipeline[S, T]) transformBatch(ctx context.Context, batch domain.Batch[S]) ([]T, int, error) {
	records, err := p.transformer.Transform(ctx, batch.Records)
	if err == nil {
		return records, 0, nil
	}
	if p.cfg.OnTransformError == TransformAbort {
		return nil, 0, &domain.TransformError{BatchIndex: batch.Index, Err: err}
	}

	// Skip-and-continue: re-transform records one at a time so a single
	// bad record does not drop the whole batch.
	kept := make([]T, 0, len(batch.Records))
	skipped := 0
	for _, rec := range batch.Records {
		one, rerr := p.transformer.Transform(ctx, []S{rec})
		if rerr != nil {
			skipped++
			logger.Warn("skipping record after transform failure",
				"datasource", p.cfg.Datasource, "batch", batch.Index, "error", rerr)
			continue
		}
		kept = append(kept, one...)
	}
	return kept, skipped, nil
}

// checkRecords enforces the session invariants on transform output:
// valid records and no duplicate ids within the run.
func (p *Pipeline[S, T]) checkRecords(records []T, seen map[string]struct{}, batchIndex int) error {
	for _, rec := range records {
		if p.validate != nil {
			if err := p.validate(rec); err != nil {
				return &domain.TransformError{BatchIndex: batchIndex, Err: err}
			}
		}
		if p.recordID == nil {
			continue
		}
		id := p.recordID(rec)
		if _, dup := seen[id]; dup {
			return &domain.TransformError{
				BatchIndex: batchIndex,
				Err:        fmt.Errorf("%w: %q", domain.ErrDuplicateRecord, id),
			}
		}
		seen[id] = struct{}{}
	}
	return nil
}

// --- status tracking ---

func (p *Pipeline[S, T]) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return false
	}
	p.running = true
	p.status = driving.RunStatus{
		Datasource:     p.cfg.Datasource,
		State:          domain.RunStateIdle,
		LastBatchIndex: -1,
	}
	return true
}

func (p *Pipeline[S, T]) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
}

func (p *Pipeline[S, T]) setState(state domain.RunState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.State = state
}

func (p *Pipeline[S, T]) setUploadID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.UploadID = id
}

func (p *Pipeline[S, T]) ack(srcCount, skipped, batchIndex int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.RecordsProcessed += srcCount
	p.status.RecordsSkipped += skipped
	p.status.BatchesSent++
	p.status.LastBatchIndex = batchIndex
}

func (p *Pipeline[S, T]) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.State = domain.RunStateFailed
	p.status.LastError = err.Error()
}

// Status returns a copy of the current run status.
func (p *Pipeline[S, T]) Status() driving.RunStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
