package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/indexstore"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/rag"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/retrieval"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// fakeDB is an in-memory core.DbClient for ingestion tests.
type fakeDB struct {
	documents map[string]*models.Document

	// forceConflict makes CreateDocument lose the claim to a pre-existing
	// winner, simulating a concurrent writer in another process.
	forceConflict bool
}

func newFakeDB() *fakeDB {
	return &fakeDB{documents: make(map[string]*models.Document)}
}

func (d *fakeDB) CreateDocument(_ context.Context, doc *models.Document) (bool, error) {
	if d.forceConflict {
		winner := *doc
		winner.ID = "winner-id"
		winner.Status = models.DocStatusReady
		d.documents[winner.ID] = &winner
		return false, nil
	}
	for _, existing := range d.documents {
		if existing.OwnerID == doc.OwnerID && existing.SourceRef == doc.SourceRef {
			return false, nil
		}
	}
	cp := *doc
	d.documents[doc.ID] = &cp
	return true, nil
}

func (d *fakeDB) GetDocumentByID(_ context.Context, id string) (*models.Document, error) {
	doc, ok := d.documents[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (d *fakeDB) GetDocumentBySource(_ context.Context, ownerID, sourceRef string) (*models.Document, error) {
	for _, doc := range d.documents {
		if doc.OwnerID == ownerID && doc.SourceRef == sourceRef {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *fakeDB) ListDocumentsByOwner(_ context.Context, ownerID string) ([]models.Document, error) {
	var out []models.Document
	for _, doc := range d.documents {
		if doc.OwnerID == ownerID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (d *fakeDB) GetDocumentTitles(_ context.Context, ids []string) (map[string]string, error) {
	titles := make(map[string]string)
	for _, id := range ids {
		if doc, ok := d.documents[id]; ok {
			titles[id] = doc.Title
		}
	}
	return titles, nil
}

func (d *fakeDB) UpdateDocumentStatus(_ context.Context, id, status string) error {
	doc, ok := d.documents[id]
	if !ok {
		return fmt.Errorf("%w: document %s", core.ErrNotFound, id)
	}
	doc.Status = status
	return nil
}

func (d *fakeDB) SetDocumentText(_ context.Context, id, rawText string) error {
	doc, ok := d.documents[id]
	if !ok {
		return fmt.Errorf("%w: document %s", core.ErrNotFound, id)
	}
	doc.RawText = rawText
	return nil
}

func (d *fakeDB) DeleteDocument(_ context.Context, id string) error {
	delete(d.documents, id)
	return nil
}

func (d *fakeDB) CreateChatSession(context.Context, *models.ChatSession) error { return nil }
func (d *fakeDB) GetChatSession(context.Context, string) (*models.ChatSession, error) {
	return nil, nil
}
func (d *fakeDB) UpdateSessionDocuments(context.Context, string, []string) error { return nil }
func (d *fakeDB) UpdateSessionStatus(context.Context, string, string) error      { return nil }
func (d *fakeDB) AppendMessagePair(context.Context, string, *models.ChatMessage, *models.ChatMessage) error {
	return nil
}
func (d *fakeDB) ListMessages(context.Context, string) ([]models.ChatMessage, error) {
	return nil, nil
}
func (d *fakeDB) Close() error { return nil }

type fakeEmbedder struct {
	calls int
	err   error
}

func (f *fakeEmbedder) ModelID() string { return "fake-model" }
func (f *fakeEmbedder) Dims() int       { return 2 }
func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type fakeFetcher struct {
	text  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

func newService(db core.DbClient, store indexstore.Store, emb core.EmbeddingProvider, fetcher core.TranscriptFetcher) *Service {
	return NewService(db, store, emb, fetcher, nil, Config{MaxChunkChars: 50, OverlapChars: 10})
}

func TestIngestNewDocument(t *testing.T) {
	db := newFakeDB()
	store := indexstore.NewMemory()
	svc := newService(db, store, &fakeEmbedder{}, &fakeFetcher{text: "Some transcript text. More text here."})

	res, err := svc.Ingest(context.Background(), "alice", "vid-1", "My Video", false)
	require.NoError(t, err)
	assert.True(t, res.IsNew)

	doc, _ := db.GetDocumentByID(context.Background(), res.DocumentID)
	require.NotNil(t, doc)
	assert.Equal(t, models.DocStatusReady, doc.Status)
	assert.Equal(t, "My Video", doc.Title)

	exists, err := store.Exists(context.Background(), res.DocumentID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIngestIsIdempotentPerSource(t *testing.T) {
	db := newFakeDB()
	fetcher := &fakeFetcher{text: "Some transcript."}
	svc := newService(db, indexstore.NewMemory(), &fakeEmbedder{}, fetcher)

	first, err := svc.Ingest(context.Background(), "alice", "vid-1", "Video", false)
	require.NoError(t, err)
	require.True(t, first.IsNew)

	second, err := svc.Ingest(context.Background(), "alice", "vid-1", "Video", false)
	require.NoError(t, err)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, 1, fetcher.calls, "re-ingesting must not refetch")
}

func TestIngestSameSourceDifferentOwners(t *testing.T) {
	db := newFakeDB()
	svc := newService(db, indexstore.NewMemory(), &fakeEmbedder{}, &fakeFetcher{text: "Shared video transcript."})

	a, err := svc.Ingest(context.Background(), "alice", "vid-1", "Video", false)
	require.NoError(t, err)
	b, err := svc.Ingest(context.Background(), "bob", "vid-1", "Video", false)
	require.NoError(t, err)

	assert.True(t, a.IsNew)
	assert.True(t, b.IsNew)
	assert.NotEqual(t, a.DocumentID, b.DocumentID)
}

func TestIngestFetchFailureCreatesNothing(t *testing.T) {
	db := newFakeDB()
	svc := newService(db, indexstore.NewMemory(), &fakeEmbedder{},
		&fakeFetcher{err: fmt.Errorf("%w: no captions", core.ErrTranscriptUnavailable)})

	_, err := svc.Ingest(context.Background(), "alice", "vid-1", "Video", false)
	assert.ErrorIs(t, err, core.ErrTranscriptUnavailable)

	doc, _ := db.GetDocumentBySource(context.Background(), "alice", "vid-1")
	assert.Nil(t, doc)
}

func TestIngestFailedBuildIsRetriable(t *testing.T) {
	db := newFakeDB()
	store := indexstore.NewMemory()
	emb := &fakeEmbedder{err: errors.New("embedding down")}
	svc := newService(db, store, emb, &fakeFetcher{text: "Transcript text."})

	_, err := svc.Ingest(context.Background(), "alice", "vid-1", "Video", false)
	require.Error(t, err)

	failed, _ := db.GetDocumentBySource(context.Background(), "alice", "vid-1")
	require.NotNil(t, failed)
	assert.Equal(t, models.DocStatusFailed, failed.Status)

	exists, _ := store.Exists(context.Background(), failed.ID)
	assert.False(t, exists, "a failed build must persist no index")

	emb.err = nil
	res, err := svc.Ingest(context.Background(), "alice", "vid-1", "Video", false)
	require.NoError(t, err)
	assert.False(t, res.IsNew)
	assert.Equal(t, failed.ID, res.DocumentID)

	retried, _ := db.GetDocumentByID(context.Background(), res.DocumentID)
	assert.Equal(t, models.DocStatusReady, retried.Status)
}

func TestIngestLostClaimObservesWinner(t *testing.T) {
	db := newFakeDB()
	db.forceConflict = true
	svc := newService(db, indexstore.NewMemory(), &fakeEmbedder{}, &fakeFetcher{text: "Transcript."})

	res, err := svc.Ingest(context.Background(), "alice", "vid-1", "Video", false)
	require.NoError(t, err)
	assert.False(t, res.IsNew)
	assert.Equal(t, "winner-id", res.DocumentID)
}

func TestIngestEmptyTranscriptYieldsReadyDocWithoutIndex(t *testing.T) {
	db := newFakeDB()
	store := indexstore.NewMemory()
	svc := newService(db, store, &fakeEmbedder{}, &fakeFetcher{text: "   \n"})

	res, err := svc.Ingest(context.Background(), "alice", "vid-1", "Video", false)
	require.NoError(t, err)

	doc, _ := db.GetDocumentByID(context.Background(), res.DocumentID)
	assert.Equal(t, models.DocStatusReady, doc.Status)

	exists, _ := store.Exists(context.Background(), res.DocumentID)
	assert.False(t, exists)
}

func TestDeleteRemovesDocumentAndIndex(t *testing.T) {
	db := newFakeDB()
	store := indexstore.NewMemory()
	svc := newService(db, store, &fakeEmbedder{}, &fakeFetcher{text: "Transcript text."})

	res, err := svc.Ingest(context.Background(), "alice", "vid-1", "Video", false)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "alice", res.DocumentID))

	doc, _ := db.GetDocumentByID(context.Background(), res.DocumentID)
	assert.Nil(t, doc)
	exists, _ := store.Exists(context.Background(), res.DocumentID)
	assert.False(t, exists)
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	db := newFakeDB()
	svc := newService(db, indexstore.NewMemory(), &fakeEmbedder{}, &fakeFetcher{text: "Transcript."})

	res, err := svc.Ingest(context.Background(), "alice", "vid-1", "Video", false)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "mallory", res.DocumentID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = svc.Delete(context.Background(), "alice", "no-such-doc")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestIngestThenAnswerEndToEnd(t *testing.T) {
	db := newFakeDB()
	store := indexstore.NewMemory()
	fetcher := &fakeFetcher{text: "Sentence one. Sentence two. Sentence three."}
	emb := &fakeEmbedder{}
	svc := NewService(db, store, emb, fetcher, nil, Config{MaxChunkChars: 20, OverlapChars: 5})

	res, err := svc.Ingest(context.Background(), "alice", "vid-1", "Lecture", false)
	require.NoError(t, err)

	idx, err := store.Load(context.Background(), res.DocumentID)
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())
	entries := idx.Entries()
	assert.Equal(t, "Sentence one.", entries[0].Chunk.Text)
	assert.Equal(t, " one. Sentence two.", entries[1].Chunk.Text)
	assert.Equal(t, "two. Sentence three.", entries[2].Chunk.Text)

	merger := retrieval.NewMerger(emb, store, 2, 0)
	answerer := rag.NewAnswerer(merger, &fakeLLM{answer: "It covers three sentences."}, db, 1000, 0)

	answer, sources, warnings, err := answerer.Answer(context.Background(), []string{res.DocumentID}, "What does the lecture say?", 2)
	require.NoError(t, err)
	assert.Equal(t, "It covers three sentences.", answer)
	assert.Empty(t, warnings)
	require.Len(t, sources, 2)
	for _, src := range sources {
		assert.Equal(t, res.DocumentID, src.DocumentID)
		assert.Equal(t, "Lecture", src.Title)
	}
}

type fakeLLM struct {
	answer string
}

func (f *fakeLLM) Generate(context.Context, string, string) (string, error) {
	return f.answer, nil
}

func TestReindexRebuildsInPlace(t *testing.T) {
	db := newFakeDB()
	store := indexstore.NewMemory()
	emb := &fakeEmbedder{}
	svc := newService(db, store, emb, &fakeFetcher{text: "Transcript text for the index."})

	res, err := svc.Ingest(context.Background(), "alice", "vid-1", "Video", false)
	require.NoError(t, err)
	callsAfterIngest := emb.calls

	require.NoError(t, svc.reindexOne(context.Background(), res.DocumentID))

	doc, _ := db.GetDocumentByID(context.Background(), res.DocumentID)
	assert.Equal(t, models.DocStatusReady, doc.Status)
	assert.Greater(t, emb.calls, callsAfterIngest)

	exists, _ := store.Exists(context.Background(), res.DocumentID)
	assert.True(t, exists)
}
