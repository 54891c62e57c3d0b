// Package retrieval fans a question out across the vector indices of a
// session's documents and merges the partial rankings into one global top-k.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/indexstore"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// NoContentWarning is reported when nothing in scope can be searched.
const NoContentWarning = "no indexed content available"

// DefaultWorkers bounds the per-document query fan-out.
const DefaultWorkers = 8

// Merger embeds a question once, queries every in-scope index in parallel
// and re-ranks the union globally. Scores from different documents are
// comparable because every index is validated against the same embedding
// model before the merge.
type Merger struct {
	embedder core.EmbeddingProvider
	store    indexstore.Store
	workers  int
	timeout  time.Duration
}

func NewMerger(embedder core.EmbeddingProvider, store indexstore.Store, workers int, timeout time.Duration) *Merger {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Merger{embedder: embedder, store: store, workers: workers, timeout: timeout}
}

// Retrieve returns the global top-k chunks for the question across the given
// documents. Documents without an index are skipped with a warning; an empty
// scope is a valid "nothing to answer from" state, not an error. A deadline
// hit surfaces as RetrievalTimeout with no partial results.
func (m *Merger) Retrieve(ctx context.Context, documentIDs []string, question string, k int) ([]models.RetrievalResult, []string, error) {
	if k <= 0 {
		return nil, nil, fmt.Errorf("%w: k must be positive, got %d", core.ErrInvalidConfig, k)
	}
	if len(documentIDs) == 0 {
		return nil, []string{NoContentWarning}, nil
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	queryVec, err := m.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, nil, m.mapTimeout(ctx, err)
	}

	partials := make([][]models.RetrievalResult, len(documentIDs))
	var mu sync.Mutex
	var warnings []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, docID := range documentIDs {
		g.Go(func() error {
			idx, err := m.store.Load(gctx, docID)
			if errors.Is(err, core.ErrNotFound) {
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("document %s has no index yet", docID))
				mu.Unlock()
				return nil
			}
			if err != nil {
				return err
			}
			if idx.ModelID() != m.embedder.ModelID() || idx.Dims() != m.embedder.Dims() {
				return fmt.Errorf("%w: document %s indexed with %s/%d, query uses %s/%d",
					core.ErrDimensionMismatch, docID, idx.ModelID(), idx.Dims(), m.embedder.ModelID(), m.embedder.Dims())
			}
			results, err := idx.Query(queryVec[0], k)
			if err != nil {
				return err
			}
			partials[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, m.mapTimeout(ctx, err)
	}

	var merged []models.RetrievalResult
	for _, p := range partials {
		merged = append(merged, p...)
	}
	if len(merged) == 0 {
		return nil, append(warnings, NoContentWarning), nil
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		if merged[i].DocumentID != merged[j].DocumentID {
			return merged[i].DocumentID < merged[j].DocumentID
		}
		return merged[i].Ordinal < merged[j].Ordinal
	})
	if k < len(merged) {
		merged = merged[:k]
	}
	return merged, warnings, nil
}

// mapTimeout converts a deadline hit into RetrievalTimeout so callers never
// mistake a truncated search for a complete one.
func (m *Merger) mapTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", core.ErrRetrievalTimeout, err)
	}
	return err
}
