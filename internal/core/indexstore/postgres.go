package indexstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/vectorindex"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// Postgres stores index artifacts as pgvector rows in document_index, one row
// per chunk. Appends are plain inserts keyed by chunk id, so incremental
// growth never rewrites existing rows.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Load rebuilds the document's in-memory index from its persisted rows.
func (s *Postgres) Load(ctx context.Context, documentID string) (*vectorindex.Index, error) {
	const metaQ = `
		SELECT model_id, dims
		FROM document_index
		WHERE document_id = $1
		LIMIT 1
	`
	var modelID string
	var dims int
	err := s.db.QueryRowContext(ctx, metaQ, documentID).Scan(&modelID, &dims)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no index for document %s", core.ErrNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("load index meta: %w", err)
	}

	const rowsQ = `
		SELECT chunk_id, ordinal, text, start_offset, end_offset, embedding
		FROM document_index
		WHERE document_id = $1
		ORDER BY ordinal ASC
	`
	rows, err := s.db.QueryContext(ctx, rowsQ, documentID)
	if err != nil {
		return nil, fmt.Errorf("load index rows: %w", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	var vectors [][]float32
	for rows.Next() {
		var ch models.Chunk
		var emb pgvector.Vector
		if err := rows.Scan(&ch.ID, &ch.Ordinal, &ch.Text, &ch.StartOffset, &ch.EndOffset, &emb); err != nil {
			return nil, err
		}
		ch.DocumentID = documentID
		chunks = append(chunks, ch)
		vectors = append(vectors, emb.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idx := vectorindex.New(modelID, dims)
	if err := idx.Add(chunks, vectors); err != nil {
		return nil, fmt.Errorf("rebuild index for document %s: %w", documentID, err)
	}
	return idx, nil
}

// Save appends the index entries in one transaction. Rows for already
// persisted chunk ids are skipped. A model or dimension change against
// existing rows is rejected before anything is written.
func (s *Postgres) Save(ctx context.Context, documentID string, idx *vectorindex.Index) error {
	const metaQ = `
		SELECT model_id, dims
		FROM document_index
		WHERE document_id = $1
		LIMIT 1
	`
	var modelID string
	var dims int
	err := s.db.QueryRowContext(ctx, metaQ, documentID).Scan(&modelID, &dims)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check index meta: %w", err)
	}
	if err == nil && (modelID != idx.ModelID() || dims != idx.Dims()) {
		return fmt.Errorf("%w: document %s indexed with %s/%d, incoming %s/%d",
			core.ErrDimensionMismatch, documentID, modelID, dims, idx.ModelID(), idx.Dims())
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const insertQ = `
		INSERT INTO document_index
			(chunk_id, document_id, ordinal, text, start_offset, end_offset, embedding, model_id, dims)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (chunk_id) DO NOTHING
	`
	stmt, err := tx.PrepareContext(ctx, insertQ)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range idx.Entries() {
		vec := pgvector.NewVector(e.Vector)
		if _, err := stmt.ExecContext(ctx,
			e.Chunk.ID, documentID, e.Chunk.Ordinal, e.Chunk.Text,
			e.Chunk.StartOffset, e.Chunk.EndOffset, vec, idx.ModelID(), idx.Dims(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert index row: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Postgres) Exists(ctx context.Context, documentID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM document_index WHERE document_id = $1)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, q, documentID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Postgres) Delete(ctx context.Context, documentID string) error {
	const q = `DELETE FROM document_index WHERE document_id = $1`
	_, err := s.db.ExecContext(ctx, q, documentID)
	return err
}

var _ Store = (*Postgres)(nil)
