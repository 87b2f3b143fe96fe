// Package connectorsdk is the public surface of the Beacon connector
// SDK. Connector authors implement the DataSource (or StreamingSource)
// and Transformer interfaces, construct a connector, and hand it to
// Execute:
//
//	cfg, err := connectorsdk.LoadConfig()
//	...
//	client := connectorsdk.NewIndexClient(cfg, nil)
//	conn, err := connectorsdk.NewDocumentConnector(
//		connectorsdk.ConnectorConfig{Name: "my_wiki"},
//		source, transformer, client, nil)
//	...
//	connectorsdk.Execute(conn)
//
// The package re-exports the core types; the implementation lives under
// internal/ following the hexagonal layout.
package connectorsdk

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/beaconsearch/connector-sdk/internal/adapters/driven/checkpoint/memory"
	"github.com/beaconsearch/connector-sdk/internal/adapters/driven/checkpoint/sqlite"
	"github.com/beaconsearch/connector-sdk/internal/adapters/driven/index"
	"github.com/beaconsearch/connector-sdk/internal/adapters/driven/metrics"
	"github.com/beaconsearch/connector-sdk/internal/adapters/driving/cli"
	"github.com/beaconsearch/connector-sdk/internal/config"
	"github.com/beaconsearch/connector-sdk/internal/core/domain"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driven"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driving"
	"github.com/beaconsearch/connector-sdk/internal/core/services"
)

// Record and planning types.
type (
	DocumentRecord   = domain.DocumentRecord
	IdentityRecord   = domain.IdentityRecord
	Content          = domain.Content
	Permissions      = domain.Permissions
	Checkpoint       = domain.Checkpoint
	DatasourceConfig = domain.DatasourceConfig
	IndexingMode     = domain.IndexingMode
	RunState         = domain.RunState
)

// Indexing modes.
const (
	ModeFull        = domain.ModeFull
	ModeIncremental = domain.ModeIncremental
)

// Caller-implemented interfaces.
type (
	DataSource[S any]         = driven.DataSource[S]
	StreamingSource[S any]    = driven.StreamingSource[S]
	Transformer[S, T any]     = driven.Transformer[S, T]
	TransformerFunc[S, T any] = driven.TransformerFunc[S, T]
	MetricsSink               = driven.MetricsSink
	Observation               = driven.Observation
	CheckpointStore           = driven.CheckpointStore
	IndexerClient             = driven.IndexerClient
)

// Driving surface.
type (
	Connector  = driving.Connector
	RunOptions = driving.RunOptions
	RunStatus  = driving.RunStatus
)

// Connector construction.
type (
	Config               = config.Config
	ConnectorConfig      = services.ConnectorConfig
	EmptyRunPolicy       = services.EmptyRunPolicy
	TransformErrorPolicy = services.TransformErrorPolicy
)

// Policies.
const (
	EmptyRunSkip   = services.EmptyRunSkip
	EmptyRunUpload = services.EmptyRunUpload
	TransformAbort = services.TransformAbort
	TransformSkip  = services.TransformSkip
)

// LoadConfig reads the SDK configuration from the environment.
func LoadConfig() (*Config, error) { return config.Load() }

// LoadDatasource reads a datasource descriptor from a TOML file.
func LoadDatasource(path string) (DatasourceConfig, error) {
	return config.LoadDatasource(path)
}

// NewIndexClient creates the production indexing API client. A nil sink
// disables metrics.
func NewIndexClient(cfg *Config, sink MetricsSink) IndexerClient {
	return index.NewClient(cfg, sink)
}

// NewDocumentConnector creates a document connector over a bounded
// source.
func NewDocumentConnector[S any](
	cfg ConnectorConfig,
	source DataSource[S],
	transformer Transformer[S, DocumentRecord],
	client IndexerClient,
	checkpoints CheckpointStore,
) (Connector, error) {
	return services.NewDocumentConnector(cfg, source, transformer, client, checkpoints)
}

// NewStreamingDocumentConnector creates a document connector over a
// streaming source.
func NewStreamingDocumentConnector[S any](
	cfg ConnectorConfig,
	stream StreamingSource[S],
	transformer Transformer[S, DocumentRecord],
	client IndexerClient,
	checkpoints CheckpointStore,
) (Connector, error) {
	return services.NewStreamingDocumentConnector(cfg, stream, transformer, client, checkpoints)
}

// NewIdentityConnector creates an identity connector over a bounded
// source.
func NewIdentityConnector[S any](
	cfg ConnectorConfig,
	source DataSource[S],
	transformer Transformer[S, IdentityRecord],
	client IndexerClient,
	checkpoints CheckpointStore,
) (Connector, error) {
	return services.NewIdentityConnector(cfg, source, transformer, client, checkpoints)
}

// NewStreamingIdentityConnector creates an identity connector over a
// streaming source.
func NewStreamingIdentityConnector[S any](
	cfg ConnectorConfig,
	stream StreamingSource[S],
	transformer Transformer[S, IdentityRecord],
	client IndexerClient,
	checkpoints CheckpointStore,
) (Connector, error) {
	return services.NewStreamingIdentityConnector(cfg, stream, transformer, client, checkpoints)
}

// NewMemoryCheckpointStore creates an in-memory checkpoint store.
func NewMemoryCheckpointStore() CheckpointStore { return memory.NewStore() }

// NewSQLiteCheckpointStore creates a durable checkpoint store. An empty
// dataDir defaults to ~/.beacon-connector/data.
func NewSQLiteCheckpointStore(dataDir string) (CheckpointStore, error) {
	return sqlite.NewStore(dataDir)
}

// NewPrometheusSink creates a Prometheus metrics sink. A nil registerer
// uses the default one.
func NewPrometheusSink(reg prometheus.Registerer) (MetricsSink, error) {
	return metrics.NewPrometheus(reg)
}

// Execute runs the standard CLI (index, configure, status, version) for
// a configured connector.
func Execute(conn Connector) error { return cli.Execute(conn) }
