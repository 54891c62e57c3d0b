package indexstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/vectorindex"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// Memory keeps indices in a process-local map. Used by tests and by
// ephemeral runs without Postgres.
type Memory struct {
	mu      sync.RWMutex
	indices map[string]*vectorindex.Index
}

func NewMemory() *Memory {
	return &Memory{indices: make(map[string]*vectorindex.Index)}
}

func (s *Memory) Load(_ context.Context, documentID string) (*vectorindex.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indices[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: no index for document %s", core.ErrNotFound, documentID)
	}
	return idx, nil
}

// Save merges the incoming entries into the stored index, skipping chunk ids
// already present, mirroring the append-only Postgres layout.
func (s *Memory) Save(_ context.Context, documentID string, idx *vectorindex.Index) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.indices[documentID]
	if !ok {
		stored = vectorindex.New(idx.ModelID(), idx.Dims())
		s.indices[documentID] = stored
	}
	if stored.ModelID() != idx.ModelID() || stored.Dims() != idx.Dims() {
		return fmt.Errorf("%w: document %s indexed with %s/%d, incoming %s/%d",
			core.ErrDimensionMismatch, documentID, stored.ModelID(), stored.Dims(), idx.ModelID(), idx.Dims())
	}

	seen := make(map[string]bool, stored.Len())
	for _, e := range stored.Entries() {
		seen[e.Chunk.ID] = true
	}
	for _, e := range idx.Entries() {
		if seen[e.Chunk.ID] {
			continue
		}
		if err := stored.Add([]models.Chunk{e.Chunk}, [][]float32{e.Vector}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Memory) Exists(_ context.Context, documentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indices[documentID]
	return ok, nil
}

func (s *Memory) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.indices, documentID)
	return nil
}

var _ Store = (*Memory)(nil)
