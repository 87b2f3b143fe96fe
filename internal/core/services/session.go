package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
	"github.com/beaconsearch/connector-sdk/internal/logger"
)

// SendPageFunc delivers one page to the indexing backend.
type SendPageFunc[T any] func(ctx context.Context, page domain.Page[T]) error

// UploadSession tracks the state of one bulk-upload operation: the upload
// id, first/last page bookkeeping and the force-restart flag.
//
// A session is owned exclusively by one run and is not safe for
// concurrent use; the backend assumes strictly ordered page delivery
// within a session, so at most one Send may be in flight at a time.
type UploadSession[T any] struct {
	uploadID     string
	datasource   string
	forceRestart bool
	send         SendPageFunc[T]

	nextIndex int
	firstSent bool
	lastSent  bool
	closed    bool
}

// OpenUploadSession opens an upload session. An empty uploadID generates
// one; a caller-supplied id lets a restarted run supersede a prior
// incomplete session server-side when forceRestart is set.
func OpenUploadSession[T any](uploadID, datasource string, forceRestart bool, send SendPageFunc[T]) *UploadSession[T] {
	if uploadID == "" {
		uploadID = uuid.NewString()
	}
	return &UploadSession[T]{
		uploadID:     uploadID,
		datasource:   datasource,
		forceRestart: forceRestart,
		send:         send,
	}
}

// UploadID returns the session's upload id, stable for the run.
func (s *UploadSession[T]) UploadID() string { return s.uploadID }

// PagesSent returns the number of acknowledged page sends.
func (s *UploadSession[T]) PagesSent() int { return s.nextIndex }

// Send uploads one batch as the next page of the session. last marks the
// final batch; a single-batch session carries both page flags on that one
// call.
//
// A failed Send does not advance the session state: the identical call
// can be retried safely, keyed by (upload id, page index) which the
// backend deduplicates on.
func (s *UploadSession[T]) Send(ctx context.Context, records []T, last bool) error {
	if s.closed || s.lastSent {
		return fmt.Errorf("%w: upload %s", domain.ErrSessionClosed, s.uploadID)
	}

	page := domain.Page[T]{
		UploadID:    s.uploadID,
		Datasource:  s.datasource,
		Records:     records,
		Index:       s.nextIndex,
		IsFirstPage: !s.firstSent,
		IsLastPage:  last,
		// The restart instruction rides only the first page; retrying it
		// is safe because the backend discard is idempotent.
		ForceRestart: s.forceRestart && !s.firstSent,
	}
	if page.ForceRestart {
		logger.Info("force restarting upload, discarding previous upload progress",
			"upload_id", s.uploadID, "datasource", s.datasource)
	}

	if err := s.send(ctx, page); err != nil {
		return &domain.UploadError{BatchIndex: page.Index, Err: err}
	}

	s.firstSent = true
	s.nextIndex++
	if last {
		s.lastSent = true
	}
	return nil
}

// Close closes the session. A no-op when the last page was already sent;
// closing a session that never sent a last page is an
// IncompleteSessionError, signalling a bug in orchestration.
func (s *UploadSession[T]) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.lastSent {
		return fmt.Errorf("%w: upload %s sent %d pages", domain.ErrIncompleteSession, s.uploadID, s.nextIndex)
	}
	return nil
}
