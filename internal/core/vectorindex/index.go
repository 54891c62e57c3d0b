// Package vectorindex holds the chunk/vector pairs of a single document and
// answers brute-force cosine similarity queries over them. Each index is
// bounded by its document's size, so exact search stays cheap; callers only
// depend on Add/Query and could swap in an ANN-backed implementation.
package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// Entry pairs one chunk with its embedding vector.
type Entry struct {
	Chunk  models.Chunk
	Vector []float32
}

// Index is the vector index of one document. Safe for concurrent use;
// reads during retrieval take only the read lock.
type Index struct {
	mu      sync.RWMutex
	modelID string
	dims    int
	entries []Entry
}

// New creates an empty index bound to one embedding model and dimension.
func New(modelID string, dims int) *Index {
	return &Index{modelID: modelID, dims: dims}
}

// ModelID returns the embedding model the index was built with.
func (ix *Index) ModelID() string { return ix.modelID }

// Dims returns the vector dimension of the index.
func (ix *Index) Dims() int { return ix.dims }

// Len returns the number of stored entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Entries returns a copy of the stored entries in insertion order.
func (ix *Index) Entries() []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Entry, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// Add appends chunk/vector pairs. Every vector is validated before anything
// is appended, so a dimension mismatch leaves the index unchanged.
func (ix *Index) Add(chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", core.ErrInvalidConfig, len(chunks), len(vectors))
	}
	for i, v := range vectors {
		if len(v) != ix.dims {
			return fmt.Errorf("%w: vector %d has %d dims, index has %d", core.ErrDimensionMismatch, i, len(v), ix.dims)
		}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i := range chunks {
		ix.entries = append(ix.entries, Entry{Chunk: chunks[i], Vector: vectors[i]})
	}
	return nil
}

// Query returns the top-k entries by cosine similarity to queryVector,
// descending. Ties break toward the lower ordinal so results are
// deterministic. k larger than the index returns everything; an empty
// index returns no results and no error.
func (ix *Index) Query(queryVector []float32, k int) ([]models.RetrievalResult, error) {
	if len(queryVector) != ix.dims {
		return nil, fmt.Errorf("%w: query vector has %d dims, index has %d", core.ErrDimensionMismatch, len(queryVector), ix.dims)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", core.ErrInvalidConfig, k)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := make([]models.RetrievalResult, 0, len(ix.entries))
	for _, e := range ix.entries {
		results = append(results, models.RetrievalResult{
			ChunkID:    e.Chunk.ID,
			DocumentID: e.Chunk.DocumentID,
			Ordinal:    e.Chunk.Ordinal,
			Text:       e.Chunk.Text,
			Score:      cosine(queryVector, e.Vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Ordinal < results[j].Ordinal
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// cosine computes cosine similarity without assuming normalized vectors.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
