// Package index implements the IndexerClient port over the Beacon bulk
// indexing HTTP API. Every call is instrumented with timing, attempt
// counting and a bounded retry policy.
package index

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/beaconsearch/connector-sdk/internal/adapters/driven/metrics"
	"github.com/beaconsearch/connector-sdk/internal/config"
	"github.com/beaconsearch/connector-sdk/internal/core/domain"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driven"
)

// Ensure Client implements the port.
var _ driven.IndexerClient = (*Client)(nil)

// proactiveRate throttles outgoing requests before the backend has to.
// Bulk pages are large; a handful of requests per second is plenty.
const proactiveRate = 5

// Client talks to the bulk indexing API.
type Client struct {
	http    *resty.Client
	sink    driven.MetricsSink
	limiter *rate.Limiter
	retry   retryPolicy
}

// NewClient creates a client from configuration. A nil sink disables
// metrics.
func NewClient(cfg *config.Config, sink driven.MetricsSink) *Client {
	if sink == nil {
		sink = metrics.Noop{}
	}
	httpClient := resty.New().
		SetBaseURL(cfg.IndexingBaseURL()).
		SetAuthToken(cfg.APIToken).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:    httpClient,
		sink:    sink,
		limiter: rate.NewLimiter(rate.Limit(proactiveRate), 1),
		retry:   defaultRetryPolicy(cfg.MaxAttempts),
	}
}

// BulkIndexDocuments uploads one page of documents.
func (c *Client) BulkIndexDocuments(ctx context.Context, page domain.Page[domain.DocumentRecord]) error {
	body := bulkDocumentsRequest{
		pageEnvelope: envelopeFor(page.UploadID, page.Datasource, page.Index, page.IsFirstPage, page.IsLastPage, page.ForceRestart),
		Documents:    documentsPayload(page.Records),
	}
	return c.call(ctx, "bulk_index_documents", func(ctx context.Context) error {
		return c.post(ctx, "/bulkindexdocuments", body)
	})
}

// BulkIndexIdentities uploads one page of identities.
func (c *Client) BulkIndexIdentities(ctx context.Context, page domain.Page[domain.IdentityRecord]) error {
	body := bulkIdentitiesRequest{
		pageEnvelope: envelopeFor(page.UploadID, page.Datasource, page.Index, page.IsFirstPage, page.IsLastPage, page.ForceRestart),
		Identities:   identitiesPayload(page.Records),
	}
	return c.call(ctx, "bulk_index_identities", func(ctx context.Context) error {
		return c.post(ctx, "/bulkindexidentities", body)
	})
}

// ConfigureDatasource registers or updates the datasource definition.
func (c *Client) ConfigureDatasource(ctx context.Context, ds domain.DatasourceConfig) error {
	body := datasourceRequest{
		Name:        ds.Name,
		DisplayName: ds.DisplayName,
		URLRegex:    ds.URLRegex,
		Category:    ds.Category,
	}
	return c.call(ctx, "configure_datasource", func(ctx context.Context) error {
		return c.post(ctx, "/adddatasource", body)
	})
}

// ReconcileDeletions asks the backend to remove documents not
// re-submitted in the given upload session.
func (c *Client) ReconcileDeletions(ctx context.Context, datasource, uploadID string) error {
	body := reconcileRequest{Datasource: datasource, UploadID: uploadID}
	return c.call(ctx, "reconcile_deletions", func(ctx context.Context) error {
		return c.post(ctx, "/processalldocuments", body)
	})
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &APIError{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       resp.String(),
		}
	}
	return nil
}

// APIError is a non-2xx response from the indexing backend.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("indexing api: %s: %s", e.Status, e.Body)
}

// --- wire types ---

type pageEnvelope struct {
	UploadID           string `json:"uploadId"`
	Datasource         string `json:"datasource"`
	PageIndex          int    `json:"pageIndex"`
	IsFirstPage        bool   `json:"isFirstPage"`
	IsLastPage         bool   `json:"isLastPage"`
	ForceRestartUpload bool   `json:"forceRestartUpload,omitempty"`
}

func envelopeFor(uploadID, datasource string, index int, first, last, restart bool) pageEnvelope {
	return pageEnvelope{
		UploadID:           uploadID,
		Datasource:         datasource,
		PageIndex:          index,
		IsFirstPage:        first,
		IsLastPage:         last,
		ForceRestartUpload: restart,
	}
}

type bulkDocumentsRequest struct {
	pageEnvelope
	Documents []documentPayload `json:"documents"`
}

type bulkIdentitiesRequest struct {
	pageEnvelope
	Identities []identityPayload `json:"identities"`
}

type contentPayload struct {
	MIMEType      string `json:"mimeType"`
	TextContent   string `json:"textContent,omitempty"`
	BinaryContent string `json:"binaryContent,omitempty"`
}

type permissionsPayload struct {
	AllowAnonymousAccess bool     `json:"allowAnonymousAccess,omitempty"`
	AllowedUsers         []string `json:"allowedUsers,omitempty"`
	AllowedGroups        []string `json:"allowedGroups,omitempty"`
}

type documentPayload struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Datasource  string              `json:"datasource"`
	ViewURL     string              `json:"viewURL,omitempty"`
	Body        contentPayload      `json:"body"`
	AuthorEmail string              `json:"authorEmail,omitempty"`
	CreatedAt   string              `json:"createdAt,omitempty"`
	UpdatedAt   string              `json:"updatedAt,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Permissions *permissionsPayload `json:"permissions,omitempty"`
}

type identityPayload struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Email    string         `json:"email,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type datasourceRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	URLRegex    string `json:"urlRegex,omitempty"`
	Category    string `json:"category,omitempty"`
}

type reconcileRequest struct {
	Datasource string `json:"datasource"`
	UploadID   string `json:"uploadId"`
}

func documentsPayload(records []domain.DocumentRecord) []documentPayload {
	out := make([]documentPayload, 0, len(records))
	for _, rec := range records {
		doc := documentPayload{
			ID:          rec.ID,
			Title:       rec.Title,
			Datasource:  rec.Datasource,
			ViewURL:     rec.ViewURL,
			AuthorEmail: rec.AuthorEmail,
			Tags:        rec.Tags,
			Body: contentPayload{
				MIMEType:    rec.Body.MIMEType,
				TextContent: rec.Body.TextContent,
			},
		}
		if len(rec.Body.BinaryContent) > 0 {
			doc.Body.BinaryContent = base64.StdEncoding.EncodeToString(rec.Body.BinaryContent)
		}
		if rec.CreatedAt != nil {
			doc.CreatedAt = rec.CreatedAt.UTC().Format(time.RFC3339)
		}
		if rec.UpdatedAt != nil {
			doc.UpdatedAt = rec.UpdatedAt.UTC().Format(time.RFC3339)
		}
		if rec.Permissions != nil {
			doc.Permissions = &permissionsPayload{
				AllowAnonymousAccess: rec.Permissions.AllowAnonymousAccess,
				AllowedUsers:         rec.Permissions.AllowedUsers,
				AllowedGroups:        rec.Permissions.AllowedGroups,
			}
		}
		out = append(out, doc)
	}
	return out
}

func identitiesPayload(records []domain.IdentityRecord) []identityPayload {
	out := make([]identityPayload, 0, len(records))
	for _, rec := range records {
		out = append(out, identityPayload{
			ID:       rec.ID,
			Name:     rec.Name,
			Email:    rec.Email,
			Metadata: rec.Metadata,
		})
	}
	return out
}
