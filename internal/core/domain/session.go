package domain

// Batch is one bounded group of records produced by the batch processor.
// Batches covering a run partition the record set in order, with no
// duplicates and no omissions.
type Batch[T any] struct {
	// Index is the zero-based position of this batch within the run.
	Index int

	// Records are the batch contents, length in [1, batch size].
	Records []T

	// Last reports whether this is the final batch of the run.
	Last bool
}

// Page is one bulk upload request unit sent to the indexing backend.
// A page is immutable once handed to the upload session.
type Page[T any] struct {
	// UploadID identifies the upload session this page belongs to.
	UploadID string

	// Datasource is the connector name.
	Datasource string

	// Records are the transformed records carried by this page.
	Records []T

	// Index is the zero-based page position within the session.
	// Together with UploadID it forms the backend's deduplication key.
	Index int

	// IsFirstPage is true on exactly one page per session.
	IsFirstPage bool

	// IsLastPage is true on exactly one page per session. A single-page
	// session carries both flags on the same page.
	IsLastPage bool

	// ForceRestart instructs the backend to discard any prior incomplete
	// session state for this UploadID. Only ever set on the first page.
	ForceRestart bool
}

// DatasourceConfig describes a datasource to the indexing backend.
// Registered once through the datasource configuration endpoint.
type DatasourceConfig struct {
	// Name is the unique datasource identifier (snake_case).
	Name string

	// DisplayName is shown in search results.
	DisplayName string

	// URLRegex matches view URLs belonging to this datasource.
	URLRegex string

	// Category groups the datasource in the backend (e.g., "knowledge").
	Category string
}

// Validate checks the configuration is complete enough to register.
func (c DatasourceConfig) Validate() error {
	if c.Name == "" {
		return &ConfigError{Reason: "datasource configuration requires a name"}
	}
	return nil
}
