package services

import (
	"context"
	"fmt"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driven"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driving"
	"github.com/beaconsearch/connector-sdk/internal/logger"
)

// Ensure connectors implement the driving port.
var (
	_ driving.Connector = (*DocumentConnector[any])(nil)
	_ driving.Connector = (*IdentityConnector[any])(nil)
)

// ConnectorConfig configures a connector.
type ConnectorConfig struct {
	// Name is the unique datasource name (snake_case).
	Name string

	// BatchSize is the upload page size. Zero selects DefaultBatchSize.
	BatchSize int

	// EmptyRun is the zero-record policy.
	EmptyRun EmptyRunPolicy

	// OnTransformError is the transform failure policy.
	OnTransformError TransformErrorPolicy

	// SinceZero is the optional incremental default checkpoint for
	// connectors that can meaningfully fetch "changes since forever".
	SinceZero *domain.Checkpoint

	// Datasource is the registration descriptor sent by
	// ConfigureDatasource. Its Name defaults to the connector name.
	Datasource domain.DatasourceConfig
}

func (c ConnectorConfig) pipelineConfig() PipelineConfig {
	return PipelineConfig{
		Datasource:       c.Name,
		BatchSize:        c.BatchSize,
		EmptyRun:         c.EmptyRun,
		OnTransformError: c.OnTransformError,
		SinceZero:        c.SinceZero,
	}
}

func (c ConnectorConfig) datasourceConfig() domain.DatasourceConfig {
	ds := c.Datasource
	if ds.Name == "" {
		ds.Name = c.Name
	}
	return ds
}

// DocumentConnector indexes documents from a caller-supplied source.
type DocumentConnector[S any] struct {
	cfg      ConnectorConfig
	client   driven.IndexerClient
	pipeline *Pipeline[S, domain.DocumentRecord]
}

// NewDocumentConnector creates a document connector over a bounded
// source. checkpoints may be nil when incremental indexing is not used.
func NewDocumentConnector[S any](
	cfg ConnectorConfig,
	source driven.DataSource[S],
	transformer driven.Transformer[S, domain.DocumentRecord],
	client driven.IndexerClient,
	checkpoints driven.CheckpointStore,
) (*DocumentConnector[S], error) {
	return newDocumentConnector(cfg, source, nil, transformer, client, checkpoints)
}

// NewStreamingDocumentConnector creates a document connector over a
// streaming source for datasets that should not be held in memory.
func NewStreamingDocumentConnector[S any](
	cfg ConnectorConfig,
	stream driven.StreamingSource[S],
	transformer driven.Transformer[S, domain.DocumentRecord],
	client driven.IndexerClient,
	checkpoints driven.CheckpointStore,
) (*DocumentConnector[S], error) {
	return newDocumentConnector(cfg, nil, stream, transformer, client, checkpoints)
}

func newDocumentConnector[S any](
	cfg ConnectorConfig,
	source driven.DataSource[S],
	stream driven.StreamingSource[S],
	transformer driven.Transformer[S, domain.DocumentRecord],
	client driven.IndexerClient,
	checkpoints driven.CheckpointStore,
) (*DocumentConnector[S], error) {
	if client == nil {
		return nil, &domain.ConfigError{Reason: "connector requires an indexer client"}
	}
	send := func(ctx context.Context, page domain.Page[domain.DocumentRecord]) error {
		return client.BulkIndexDocuments(ctx, page)
	}
	pipeline, err := newPipeline(cfg.pipelineConfig(), source, stream, transformer, send)
	if err != nil {
		return nil, err
	}
	pipeline.checkpoints = checkpoints
	pipeline.validate = func(rec domain.DocumentRecord) error { return rec.Validate(cfg.Name) }
	pipeline.recordID = func(rec domain.DocumentRecord) string { return rec.ID }
	pipeline.reconcile = func(ctx context.Context, uploadID string) error {
		logger.Info("reconciling deletions", "datasource", cfg.Name, "upload_id", uploadID)
		return client.ReconcileDeletions(ctx, cfg.Name, uploadID)
	}
	return &DocumentConnector[S]{cfg: cfg, client: client, pipeline: pipeline}, nil
}

// Name returns the datasource name.
func (c *DocumentConnector[S]) Name() string { return c.cfg.Name }

// IndexData runs one document indexing pass.
func (c *DocumentConnector[S]) IndexData(ctx context.Context, opts driving.RunOptions) error {
	return c.pipeline.Run(ctx, opts)
}

// ConfigureDatasource registers the datasource with the backend.
func (c *DocumentConnector[S]) ConfigureDatasource(ctx context.Context) error {
	ds := c.cfg.datasourceConfig()
	if err := ds.Validate(); err != nil {
		return err
	}
	if err := c.client.ConfigureDatasource(ctx, ds); err != nil {
		return fmt.Errorf("configure datasource: %w", err)
	}
	return nil
}

// Status reports the current run status.
func (c *DocumentConnector[S]) Status() driving.RunStatus { return c.pipeline.Status() }

// IdentityConnector indexes identities (users, employees) from a
// caller-supplied source. Identity uploads have no deletion
// reconciliation sweep.
type IdentityConnector[S any] struct {
	cfg      ConnectorConfig
	client   driven.IndexerClient
	pipeline *Pipeline[S, domain.IdentityRecord]
}

// NewIdentityConnector creates an identity connector over a bounded
// source.
func NewIdentityConnector[S any](
	cfg ConnectorConfig,
	source driven.DataSource[S],
	transformer driven.Transformer[S, domain.IdentityRecord],
	client driven.IndexerClient,
	checkpoints driven.CheckpointStore,
) (*IdentityConnector[S], error) {
	return newIdentityConnector(cfg, source, nil, transformer, client, checkpoints)
}

// NewStreamingIdentityConnector creates an identity connector over a
// streaming source.
func NewStreamingIdentityConnector[S any](
	cfg ConnectorConfig,
	stream driven.StreamingSource[S],
	transformer driven.Transformer[S, domain.IdentityRecord],
	client driven.IndexerClient,
	checkpoints driven.CheckpointStore,
) (*IdentityConnector[S], error) {
	return newIdentityConnector(cfg, nil, stream, transformer, client, checkpoints)
}

func newIdentityConnector[S any](
	cfg ConnectorConfig,
	source driven.DataSource[S],
	stream driven.StreamingSource[S],
	transformer driven.Transformer[S, domain.IdentityRecord],
	client driven.IndexerClient,
	checkpoints driven.CheckpointStore,
) (*IdentityConnector[S], error) {
	if client == nil {
		return nil, &domain.ConfigError{Reason: "connector requires an indexer client"}
	}
	send := func(ctx context.Context, page domain.Page[domain.IdentityRecord]) error {
		return client.BulkIndexIdentities(ctx, page)
	}
	pipeline, err := newPipeline(cfg.pipelineConfig(), source, stream, transformer, send)
	if err != nil {
		return nil, err
	}
	pipeline.checkpoints = checkpoints
	pipeline.validate = func(rec domain.IdentityRecord) error { return rec.Validate() }
	pipeline.recordID = func(rec domain.IdentityRecord) string { return rec.ID }
	return &IdentityConnector[S]{cfg: cfg, client: client, pipeline: pipeline}, nil
}

// Name returns the datasource name.
func (c *IdentityConnector[S]) Name() string { return c.cfg.Name }

// IndexData runs one identity indexing pass.
func (c *IdentityConnector[S]) IndexData(ctx context.Context, opts driving.RunOptions) error {
	return c.pipeline.Run(ctx, opts)
}

// ConfigureDatasource registers the datasource with the backend.
func (c *IdentityConnector[S]) ConfigureDatasource(ctx context.Context) error {
	ds := c.cfg.datasourceConfig()
	if err := ds.Validate(); err != nil {
		return err
	}
	if err := c.client.ConfigureDatasource(ctx, ds); err != nil {
		return fmt.Errorf("configure datasource: %w", err)
	}
	return nil
}

// Status reports the current run status.
func (c *IdentityConnector[S]) Status() driving.RunStatus { return c.pipeline.Status() }
