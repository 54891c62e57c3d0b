// Package ingest builds a document's vector index from its transcript:
// fetch, chunk, embed, persist. A build is all-or-nothing; no partial index
// is ever stored.
package ingest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/chunker"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/indexstore"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/vectorindex"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// Config tunes chunking and the optional raw transcript archive.
type Config struct {
	MaxChunkChars int
	OverlapChars  int
	ArchiveBucket string // empty disables archiving
}

// Service ingests documents and rebuilds their indices. Concurrent builds
// of the same (owner, sourceRef) serialize on a per-document lock in
// process and on the unique documents row across processes; the loser
// observes the winner's document.
type Service struct {
	db       core.DbClient
	store    indexstore.Store
	embedder core.EmbeddingProvider
	fetcher  core.TranscriptFetcher
	archive  core.ObjectClient // may be nil
	cfg      Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	jobs chan string
}

func NewService(db core.DbClient, store indexstore.Store, embedder core.EmbeddingProvider, fetcher core.TranscriptFetcher, archive core.ObjectClient, cfg Config) *Service {
	if cfg.MaxChunkChars <= 0 {
		cfg.MaxChunkChars = chunker.DefaultMaxChunkChars
	}
	if cfg.OverlapChars < 0 {
		cfg.OverlapChars = chunker.DefaultOverlapChars
	}
	return &Service{
		db:       db,
		store:    store,
		embedder: embedder,
		fetcher:  fetcher,
		archive:  archive,
		cfg:      cfg,
		locks:    make(map[string]*sync.Mutex),
		jobs:     make(chan string, 64),
	}
}

// Ingest creates and indexes the document for (ownerID, sourceRef).
// Re-ingesting an existing pair is a no-op returning the existing id; a
// previously failed build is retried in place.
func (s *Service) Ingest(ctx context.Context, ownerID, sourceRef, title string, isPublic bool) (*models.IngestResult, error) {
	unlock := s.lock(ownerID + "\x00" + sourceRef)
	defer unlock()

	existing, err := s.db.GetDocumentBySource(ctx, ownerID, sourceRef)
	if err != nil {
		return nil, fmt.Errorf("look up document: %w", err)
	}
	if existing != nil && existing.Status != models.DocStatusFailed {
		return &models.IngestResult{DocumentID: existing.ID, IsNew: false}, nil
	}

	text, err := s.fetcher.Fetch(ctx, sourceRef)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		// Retry of a failed build reuses the claim row.
		if err := s.db.UpdateDocumentStatus(ctx, existing.ID, models.DocStatusProcessing); err != nil {
			return nil, err
		}
		if err := s.db.SetDocumentText(ctx, existing.ID, text); err != nil {
			return nil, err
		}
		existing.RawText = text
		if err := s.build(ctx, existing); err != nil {
			return nil, err
		}
		return &models.IngestResult{DocumentID: existing.ID, IsNew: false}, nil
	}

	now := time.Now()
	doc := &models.Document{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		SourceRef: sourceRef,
		Title:     title,
		RawText:   text,
		Status:    models.DocStatusProcessing,
		IsPublic:  isPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	inserted, err := s.db.CreateDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	if !inserted {
		// Another writer claimed the pair first; observe its result.
		winner, err := s.db.GetDocumentBySource(ctx, ownerID, sourceRef)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, fmt.Errorf("%w: document for %s vanished after claim", core.ErrNotFound, sourceRef)
		}
		return &models.IngestResult{DocumentID: winner.ID, IsNew: false}, nil
	}

	if err := s.build(ctx, doc); err != nil {
		return nil, err
	}
	s.archiveRaw(ctx, doc)
	return &models.IngestResult{DocumentID: doc.ID, IsNew: true}, nil
}

// Delete removes the document and its index. Owner-only.
func (s *Service) Delete(ctx context.Context, ownerID, documentID string) error {
	doc, err := s.ownedDocument(ctx, ownerID, documentID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete index: %w", err)
	}
	if err := s.db.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// EnqueueReindex schedules a background rebuild of the document's index
// from its stored raw text. Owner-only. Blocks when the queue is full.
func (s *Service) EnqueueReindex(ctx context.Context, ownerID, documentID string) error {
	if _, err := s.ownedDocument(ctx, ownerID, documentID); err != nil {
		return err
	}
	s.jobs <- documentID
	return nil
}

// StartWorkers runs numWorkers goroutines draining the reindex queue until
// the context is cancelled.
func (s *Service) StartWorkers(ctx context.Context, numWorkers int) {
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("Ingest: reindex worker %d shutting down", w)
					return
				case docID := <-s.jobs:
					log.Printf("Ingest: worker %d reindexing document %s", w, docID)
					if err := s.reindexOne(ctx, docID); err != nil {
						log.Printf("Ingest: reindex of %s failed: %v", docID, err)
					}
				}
			}
		}(w)
	}
}

func (s *Service) reindexOne(ctx context.Context, documentID string) error {
	doc, err := s.db.GetDocumentByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%w: document %s", core.ErrNotFound, documentID)
	}

	unlock := s.lock(doc.OwnerID + "\x00" + doc.SourceRef)
	defer unlock()

	if err := s.db.UpdateDocumentStatus(ctx, doc.ID, models.DocStatusProcessing); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.ID); err != nil {
		_ = s.db.UpdateDocumentStatus(ctx, doc.ID, models.DocStatusFailed)
		return fmt.Errorf("drop stale index: %w", err)
	}
	return s.build(ctx, doc)
}

// build chunks, embeds and persists the index, then flips the document to
// ready. Any failure marks the document failed and persists nothing, so a
// retry starts clean.
func (s *Service) build(ctx context.Context, doc *models.Document) error {
	fail := func(err error) error {
		if dbErr := s.db.UpdateDocumentStatus(ctx, doc.ID, models.DocStatusFailed); dbErr != nil {
			log.Printf("Ingest: marking document %s failed: %v", doc.ID, dbErr)
		}
		return err
	}

	chunks, err := chunker.Split(doc.RawText, doc.ID, s.cfg.MaxChunkChars, s.cfg.OverlapChars)
	if err != nil {
		return fail(err)
	}
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Text
		}
		vectors, err := s.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return fail(err)
		}

		idx := vectorindex.New(s.embedder.ModelID(), s.embedder.Dims())
		if err := idx.Add(chunks, vectors); err != nil {
			return fail(err)
		}
		if err := s.store.Save(ctx, doc.ID, idx); err != nil {
			return fail(fmt.Errorf("persist index: %w", err))
		}
	}

	if err := s.db.UpdateDocumentStatus(ctx, doc.ID, models.DocStatusReady); err != nil {
		return err
	}
	log.Printf("Ingest: document %s indexed with %d chunks", doc.ID, len(chunks))
	return nil
}

// archiveRaw uploads the raw transcript to object storage when configured.
// Archive trouble never fails an ingestion.
func (s *Service) archiveRaw(ctx context.Context, doc *models.Document) {
	if s.archive == nil || s.cfg.ArchiveBucket == "" {
		return
	}
	key := fmt.Sprintf("%s/%s/transcript.txt", doc.OwnerID, doc.ID)
	if _, err := s.archive.UploadFile(ctx, s.cfg.ArchiveBucket, key, []byte(doc.RawText), "text/plain; charset=utf-8"); err != nil {
		log.Printf("Ingest: archiving transcript for %s failed: %v", doc.ID, err)
	}
}

func (s *Service) ownedDocument(ctx context.Context, ownerID, documentID string) (*models.Document, error) {
	doc, err := s.db.GetDocumentByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document %s", core.ErrNotFound, documentID)
	}
	if doc.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: document %s belongs to another user", core.ErrForbidden, documentID)
	}
	return doc, nil
}

// lock returns the unlock function of the per-document mutex for key.
func (s *Service) lock(key string) func() {
	s.mu.Lock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}
