// Package indexstore persists one vector index per document.
package indexstore

import (
	"context"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/vectorindex"
)

// Store persists and loads per-document vector indices. Load of a document
// that was never indexed returns core.ErrNotFound; retrieval treats that as
// "not yet embedded", not as a failure.
type Store interface {
	Load(ctx context.Context, documentID string) (*vectorindex.Index, error)
	// Save appends the index's entries. Entries already persisted for the
	// document are left untouched, so a growing index never needs a rewrite.
	Save(ctx context.Context, documentID string, idx *vectorindex.Index) error
	Exists(ctx context.Context, documentID string) (bool, error)
	Delete(ctx context.Context, documentID string) error
}
