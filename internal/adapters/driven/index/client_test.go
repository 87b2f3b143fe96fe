package index

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beaconsearch/connector-sdk/internal/config"
	"github.com/beaconsearch/connector-sdk/internal/core/domain"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driven"
)

// captureSink records metrics observations.
type captureSink struct {
	observations []driven.Observation
}

func (s *captureSink) Observe(obs driven.Observation) {
	s.observations = append(s.observations, obs)
}

func newTestClient(t *testing.T, handler http.Handler, sink driven.MetricsSink) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Instance:       "test",
		APIToken:       "secret-token",
		BaseURL:        server.URL,
		RequestTimeout: 5 * time.Second,
		MaxAttempts:    3,
	}
	c := NewClient(cfg, sink)
	// Fast tests: no proactive throttling, millisecond backoff.
	c.limiter = nil
	c.retry.backoffBase = time.Millisecond
	c.retry.jitter = 0
	return c
}

func docPage() domain.Page[domain.DocumentRecord] {
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	return domain.Page[domain.DocumentRecord]{
		UploadID:    "upload-1",
		Datasource:  "wiki",
		Index:       0,
		IsFirstPage: true,
		IsLastPage:  false,
		Records: []domain.DocumentRecord{
			{
				ID:         "doc-1",
				Title:      "Onboarding",
				Datasource: "wiki",
				ViewURL:    "https://wiki.company.com/doc-1",
				Body:       domain.Content{MIMEType: "text/plain", TextContent: "hello"},
				CreatedAt:  &created,
				Tags:       []string{"hr"},
			},
			{
				ID:         "doc-2",
				Title:      "Binary attachment",
				Datasource: "wiki",
				Body:       domain.Content{MIMEType: "application/pdf", BinaryContent: []byte("PDF")},
			},
		},
	}
}

func TestClient_BulkIndexDocuments(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, handler, nil)

	err := c.BulkIndexDocuments(context.Background(), docPage())
	require.NoError(t, err)

	assert.Equal(t, "/bulkindexdocuments", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)

	assert.Equal(t, "upload-1", gotBody["uploadId"])
	assert.Equal(t, "wiki", gotBody["datasource"])
	assert.Equal(t, float64(0), gotBody["pageIndex"])
	assert.Equal(t, true, gotBody["isFirstPage"])
	assert.Equal(t, false, gotBody["isLastPage"])
	// Omitted when the restart flag is unset.
	assert.NotContains(t, gotBody, "forceRestartUpload")

	docs, ok := gotBody["documents"].([]any)
	require.True(t, ok)
	require.Len(t, docs, 2)

	first := docs[0].(map[string]any)
	assert.Equal(t, "doc-1", first["id"])
	assert.Equal(t, "2026-01-15T10:00:00Z", first["createdAt"])
	body := first["body"].(map[string]any)
	assert.Equal(t, "text/plain", body["mimeType"])
	assert.Equal(t, "hello", body["textContent"])

	second := docs[1].(map[string]any)
	binary := second["body"].(map[string]any)
	// "PDF" base64-encoded.
	assert.Equal(t, "UERG", binary["binaryContent"])
}

func TestClient_ForceRestartOnWire(t *testing.T) {
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
	})
	c := newTestClient(t, handler, nil)

	page := docPage()
	page.ForceRestart = true
	require.NoError(t, c.BulkIndexDocuments(context.Background(), page))

	assert.Equal(t, true, gotBody["forceRestartUpload"])
}

func TestClient_BulkIndexIdentities(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
	})
	c := newTestClient(t, handler, nil)

	page := domain.Page[domain.IdentityRecord]{
		UploadID:    "upload-2",
		Datasource:  "directory",
		IsFirstPage: true,
		IsLastPage:  true,
		Records: []domain.IdentityRecord{
			{ID: "u-1", Name: "Jane Smith", Email: "jane@company.com"},
		},
	}
	require.NoError(t, c.BulkIndexIdentities(context.Background(), page))

	assert.Equal(t, "/bulkindexidentities", gotPath)
	identities := gotBody["identities"].([]any)
	require.Len(t, identities, 1)
	assert.Equal(t, "jane@company.com", identities[0].(map[string]any)["email"])
}

func TestClient_ConfigureDatasource(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
	})
	c := newTestClient(t, handler, nil)

	ds := domain.DatasourceConfig{Name: "wiki", DisplayName: "Company Wiki"}
	require.NoError(t, c.ConfigureDatasource(context.Background(), ds))

	assert.Equal(t, "/adddatasource", gotPath)
	assert.Equal(t, "wiki", gotBody["name"])
	assert.Equal(t, "Company Wiki", gotBody["displayName"])
}

func TestClient_ReconcileDeletions(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
	})
	c := newTestClient(t, handler, nil)

	require.NoError(t, c.ReconcileDeletions(context.Background(), "wiki", "upload-1"))

	assert.Equal(t, "/processalldocuments", gotPath)
	assert.Equal(t, "wiki", gotBody["datasource"])
	assert.Equal(t, "upload-1", gotBody["uploadId"])
}

func TestClient_RetriesServerErrors(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	sink := &captureSink{}
	c := newTestClient(t, handler, sink)

	err := c.BulkIndexDocuments(context.Background(), docPage())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	require.Len(t, sink.observations, 1)
	obs := sink.observations[0]
	assert.Equal(t, "bulk_index_documents", obs.Call)
	assert.Equal(t, 3, obs.Attempts)
	assert.Equal(t, driven.OutcomeSuccess, obs.Outcome)
}

func TestClient_RetriesExhausted(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})
	sink := &captureSink{}
	c := newTestClient(t, handler, sink)

	err := c.BulkIndexDocuments(context.Background(), docPage())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, 3, calls)
	assert.Equal(t, driven.OutcomeError, sink.observations[0].Outcome)
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"bad datasource"}`, http.StatusBadRequest)
	})
	sink := &captureSink{}
	c := newTestClient(t, handler, sink)

	err := c.BulkIndexDocuments(context.Background(), docPage())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, 1, calls)

	require.Len(t, sink.observations, 1)
	assert.Equal(t, 1, sink.observations[0].Attempts)
}

func TestClient_RetriesPerCallTimeout(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(300 * time.Millisecond)
	})
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Instance:       "test",
		APIToken:       "secret-token",
		BaseURL:        server.URL,
		RequestTimeout: 50 * time.Millisecond,
		MaxAttempts:    3,
	}
	sink := &captureSink{}
	c := NewClient(cfg, sink)
	c.limiter = nil
	c.retry.backoffBase = time.Millisecond
	c.retry.jitter = 0

	err := c.ConfigureDatasource(context.Background(), domain.DatasourceConfig{Name: "wiki"})
	require.Error(t, err)

	// The per-request timeout is transient: every attempt goes out.
	assert.Equal(t, int32(3), calls.Load())

	require.Len(t, sink.observations, 1)
	assert.Equal(t, 3, sink.observations[0].Attempts)
	assert.Equal(t, driven.OutcomeError, sink.observations[0].Outcome)
}

func TestClient_RetriesRateLimited(t *testing.T) {
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, handler, nil)

	require.NoError(t, c.ReconcileDeletions(context.Background(), "wiki", "u1"))
	assert.Equal(t, 2, calls)
}
