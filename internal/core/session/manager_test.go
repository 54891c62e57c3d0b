package session

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// fakeDB is an in-memory core.DbClient for session tests.
type fakeDB struct {
	documents map[string]*models.Document
	sessions  map[string]*models.ChatSession
	messages  map[string][]models.ChatMessage

	appendErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		documents: make(map[string]*models.Document),
		sessions:  make(map[string]*models.ChatSession),
		messages:  make(map[string][]models.ChatMessage),
	}
}

func (d *fakeDB) CreateDocument(_ context.Context, doc *models.Document) (bool, error) {
	if _, ok := d.documents[doc.ID]; ok {
		return false, nil
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
		return core.ErrNotFound
	}
	doc.Status = status
	return nil
}

func (d *fakeDB) SetDocumentText(_ context.Context, id, rawText string) error {
	doc, ok := d.documents[id]
	if !ok {
		return core.ErrNotFound
	}
	doc.RawText = rawText
	return nil
}

func (d *fakeDB) DeleteDocument(_ context.Context, id string) error {
	delete(d.documents, id)
	return nil
}

func (d *fakeDB) CreateChatSession(_ context.Context, sess *models.ChatSession) error {
	cp := *sess
	d.sessions[sess.ID] = &cp
	return nil
}

func (d *fakeDB) GetChatSession(_ context.Context, id string) (*models.ChatSession, error) {
	sess, ok := d.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (d *fakeDB) UpdateSessionDocuments(_ context.Context, id string, documentIDs []string) error {
	sess, ok := d.sessions[id]
	if !ok {
		return core.ErrNotFound
	}
	sess.DocumentIDs = documentIDs
	return nil
}

func (d *fakeDB) UpdateSessionStatus(_ context.Context, id, status string) error {
	sess, ok := d.sessions[id]
	if !ok {
		return core.ErrNotFound
	}
	sess.Status = status
	return nil
}

func (d *fakeDB) AppendMessagePair(_ context.Context, sessionID string, userMsg, assistantMsg *models.ChatMessage) error {
	if d.appendErr != nil {
		return d.appendErr
	}
	d.messages[sessionID] = append(d.messages[sessionID], *userMsg, *assistantMsg)
	return nil
}

func (d *fakeDB) ListMessages(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	msgs := make([]models.ChatMessage, len(d.messages[sessionID]))
	copy(msgs, d.messages[sessionID])
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (d *fakeDB) Close() error { return nil }

type fakeAnswerer struct {
	answer string
	err    error
	calls  int
	lastK  int
}

func (f *fakeAnswerer) Answer(_ context.Context, documentIDs []string, question string, k int) (string, []models.SourceRef, []string, error) {
	f.calls++
	f.lastK = k
	if f.err != nil {
		return "", nil, nil, f.err
	}
	return f.answer, []models.SourceRef{{DocumentID: "doc-a", ChunkID: "c0", Score: 0.9}}, nil, nil
}

func seedDoc(db *fakeDB, id, owner string, public bool) {
	db.documents[id] = &models.Document{
		ID: id, OwnerID: owner, SourceRef: "src-" + id, Title: "Title " + id,
		Status: models.DocStatusReady, IsPublic: public,
	}
}

func TestCreateValidatesScope(t *testing.T) {
	db := newFakeDB()
	seedDoc(db, "doc-mine", "alice", false)
	seedDoc(db, "doc-public", "bob", true)
	seedDoc(db, "doc-private", "bob", false)
	m := NewManager(db, &fakeAnswerer{answer: "ok"}, 5)

	sess, err := m.Create(context.Background(), "alice", []string{"doc-mine", "doc-public"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCreated, sess.Status)
	assert.Equal(t, "alice", sess.OwnerID)

	_, err = m.Create(context.Background(), "alice", []string{"doc-private"})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = m.Create(context.Background(), "alice", []string{"doc-nope"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAskAppendsPairAndActivates(t *testing.T) {
	db := newFakeDB()
	seedDoc(db, "doc-a", "alice", false)
	answerer := &fakeAnswerer{answer: "the answer"}
	m := NewManager(db, answerer, 5)

	sess, err := m.Create(context.Background(), "alice", []string{"doc-a"})
	require.NoError(t, err)

	res, err := m.Ask(context.Background(), "alice", sess.ID, "what?", 0)
	require.NoError(t, err)
	assert.Equal(t, "the answer", res.Answer)
	assert.Equal(t, 5, answerer.lastK, "default k applies when caller passes none")

	stored, _ := db.GetChatSession(context.Background(), sess.ID)
	assert.Equal(t, models.SessionActive, stored.Status)

	msgs := db.messages[sess.ID]
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "what?", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "the answer", msgs[1].Content)
	assert.NotEmpty(t, msgs[1].Sources)
}

func TestAskPairingStaysEvenAcrossTurns(t *testing.T) {
	db := newFakeDB()
	seedDoc(db, "doc-a", "alice", false)
	m := NewManager(db, &fakeAnswerer{answer: "a"}, 5)

	sess, err := m.Create(context.Background(), "alice", []string{"doc-a"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := m.Ask(context.Background(), "alice", sess.ID, "q", 2)
		require.NoError(t, err)
	}

	msgs := db.messages[sess.ID]
	require.Len(t, msgs, 6)
	for i, msg := range msgs {
		if i%2 == 0 {
			assert.Equal(t, models.RoleUser, msg.Role)
		} else {
			assert.Equal(t, models.RoleAssistant, msg.Role)
		}
	}
}

func TestAskFailedAnswerLeavesNoDanglingMessage(t *testing.T) {
	db := newFakeDB()
	seedDoc(db, "doc-a", "alice", false)
	m := NewManager(db, &fakeAnswerer{err: errors.New("generation blew up")}, 5)

	sess, err := m.Create(context.Background(), "alice", []string{"doc-a"})
	require.NoError(t, err)

	_, err = m.Ask(context.Background(), "alice", sess.ID, "q", 2)
	require.Error(t, err)
	assert.Empty(t, db.messages[sess.ID])

	stored, _ := db.GetChatSession(context.Background(), sess.ID)
	assert.Equal(t, models.SessionCreated, stored.Status)
}

func TestAskClosedSession(t *testing.T) {
	db := newFakeDB()
	seedDoc(db, "doc-a", "alice", false)
	m := NewManager(db, &fakeAnswerer{answer: "a"}, 5)

	sess, err := m.Create(context.Background(), "alice", []string{"doc-a"})
	require.NoError(t, err)
	require.NoError(t, m.Close(context.Background(), "alice", sess.ID))

	_, err = m.Ask(context.Background(), "alice", sess.ID, "q", 2)
	assert.ErrorIs(t, err, core.ErrSessionClosed)
}

func TestSessionOwnershipEnforced(t *testing.T) {
	db := newFakeDB()
	seedDoc(db, "doc-a", "alice", false)
	m := NewManager(db, &fakeAnswerer{answer: "a"}, 5)

	sess, err := m.Create(context.Background(), "alice", []string{"doc-a"})
	require.NoError(t, err)

	_, _, err = m.Get(context.Background(), "mallory", sess.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = m.Ask(context.Background(), "mallory", sess.ID, "q", 2)
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = m.Close(context.Background(), "mallory", sess.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, _, err = m.Get(context.Background(), "alice", "no-such-session")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateDocumentsRevalidatesScope(t *testing.T) {
	db := newFakeDB()
	seedDoc(db, "doc-a", "alice", false)
	seedDoc(db, "doc-b", "alice", false)
	seedDoc(db, "doc-private", "bob", false)
	m := NewManager(db, &fakeAnswerer{answer: "a"}, 5)

	sess, err := m.Create(context.Background(), "alice", []string{"doc-a"})
	require.NoError(t, err)

	require.NoError(t, m.UpdateDocuments(context.Background(), "alice", sess.ID, []string{"doc-a", "doc-b"}))
	stored, _ := db.GetChatSession(context.Background(), sess.ID)
	assert.Equal(t, []string{"doc-a", "doc-b"}, stored.DocumentIDs)

	err = m.UpdateDocuments(context.Background(), "alice", sess.ID, []string{"doc-private"})
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, m.Close(context.Background(), "alice", sess.ID))
	err = m.UpdateDocuments(context.Background(), "alice", sess.ID, []string{"doc-a"})
	assert.ErrorIs(t, err, core.ErrSessionClosed)
}
