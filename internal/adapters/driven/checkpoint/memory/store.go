// Package memory provides an in-memory checkpoint store, mainly for
// tests and connectors that never run incrementally.
package memory

import (
	"context"
	"sync"

	"github.com/beaconsearch/connector-sdk/internal/core/domain"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CheckpointStore = (*Store)(nil)

// Store is an in-memory implementation of driven.CheckpointStore.
type Store struct {
	mu          sync.RWMutex
	checkpoints map[string]domain.Checkpoint
}

// NewStore creates a new in-memory checkpoint store.
func NewStore() *Store {
	return &Store{checkpoints: make(map[string]domain.Checkpoint)}
}

// Save stores or updates the checkpoint for a datasource.
func (s *Store) Save(_ context.Context, checkpoint domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[checkpoint.Datasource] = checkpoint
	return nil
}

// Get retrieves the checkpoint for a datasource.
func (s *Store) Get(_ context.Context, datasource string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	checkpoint, ok := s.checkpoints[datasource]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &checkpoint, nil
}

// Delete removes the checkpoint for a datasource.
func (s *Store) Delete(_ context.Context, datasource string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.checkpoints, datasource)
	return nil
}
