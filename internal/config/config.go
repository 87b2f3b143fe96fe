// Package config loads the SDK configuration. Configuration is read once
// at process start into an immutable struct that is passed by reference;
// there is no ambient global state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
)

// Environment variables read by the SDK. Load reads all but
// EnvLogLevel, which the CLI resolves against its --log-level flag.
const (
	EnvInstance  = "BEACON_INSTANCE"
	EnvAPIToken  = "BEACON_INDEXING_API_TOKEN"
	EnvBaseURL   = "BEACON_BASE_URL"
	EnvBatchSize = "BEACON_BATCH_SIZE"
	EnvLogLevel  = "BEACON_LOG_LEVEL"
)

// Defaults applied when the corresponding setting is absent.
const (
	DefaultRequestTimeout = 60 * time.Second
	DefaultMaxAttempts    = 5
)

// Config holds everything the SDK needs to talk to the indexing backend.
// Construct at process start, immutable thereafter.
type Config struct {
	// Instance is the backend instance identifier.
	Instance string

	// APIToken is the bearer token for the indexing API.
	APIToken string

	// BaseURL overrides the URL derived from Instance. Mainly for tests
	// and on-prem deployments.
	BaseURL string

	// BatchSize is the default upload page size, zero for the SDK default.
	BatchSize int

	// RequestTimeout applies per network call, not to a run as a whole.
	RequestTimeout time.Duration

	// MaxAttempts bounds retries per network call.
	MaxAttempts int
}

// Load reads configuration from the environment. A `.env` file in the
// working directory is honoured when present. Missing required values
// are a ConfigError listing every absent variable; configuration is
// never retried.
func Load() (*Config, error) {
	// Best effort: absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Instance:       os.Getenv(EnvInstance),
		APIToken:       os.Getenv(EnvAPIToken),
		BaseURL:        os.Getenv(EnvBaseURL),
		RequestTimeout: DefaultRequestTimeout,
		MaxAttempts:    DefaultMaxAttempts,
	}

	var missing []string
	if cfg.Instance == "" {
		missing = append(missing, EnvInstance)
	}
	if cfg.APIToken == "" {
		missing = append(missing, EnvAPIToken)
	}
	if len(missing) > 0 {
		return nil, &domain.ConfigError{Missing: missing}
	}

	if raw := os.Getenv(EnvBatchSize); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return nil, &domain.ConfigError{
				Reason: fmt.Sprintf("%s must be a positive integer, got %q", EnvBatchSize, raw),
			}
		}
		cfg.BatchSize = size
	}

	return cfg, nil
}

// IndexingBaseURL returns the base URL of the bulk indexing API.
func (c *Config) IndexingBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return fmt.Sprintf("https://%s-be.beaconsearch.io/api/index/v1", c.Instance)
}

// datasourceFile is the on-disk TOML shape of a datasource descriptor.
type datasourceFile struct {
	Name        string `toml:"name"`
	DisplayName string `toml:"display_name"`
	URLRegex    string `toml:"url_regex"`
	Category    string `toml:"category"`
}

// LoadDatasource reads a datasource descriptor from a TOML file.
func LoadDatasource(path string) (domain.DatasourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.DatasourceConfig{}, fmt.Errorf("reading datasource file: %w", err)
	}

	var file datasourceFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return domain.DatasourceConfig{}, fmt.Errorf("parsing datasource file: %w", err)
	}

	ds := domain.DatasourceConfig{
		Name:        file.Name,
		DisplayName: file.DisplayName,
		URLRegex:    file.URLRegex,
		Category:    file.Category,
	}
	if err := ds.Validate(); err != nil {
		return domain.DatasourceConfig{}, err
	}
	return ds, nil
}
