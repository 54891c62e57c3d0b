// Package session owns chat session lifecycle: creation, scope updates,
// question turns and closure, with per-owner access control.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// Answerer is the question-answering capability a session turn needs.
// Satisfied by rag.Answerer.
type Answerer interface {
	Answer(ctx context.Context, documentIDs []string, question string, k int) (answer string, sources []models.SourceRef, warnings []string, err error)
}

// DefaultTopK is used when a caller does not pick k.
const DefaultTopK = 5

// Manager enforces the session state machine (created -> active -> closed)
// and the invariant that messages are only ever appended in full
// (user, assistant) pairs.
type Manager struct {
	db       core.DbClient
	answerer Answerer
	defaultK int
}

func NewManager(db core.DbClient, answerer Answerer, defaultK int) *Manager {
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	return &Manager{db: db, answerer: answerer, defaultK: defaultK}
}

// Create opens a session scoped to the given documents. Every document must
// exist and be readable by the owner (owned or public).
func (m *Manager) Create(ctx context.Context, ownerID string, documentIDs []string) (*models.ChatSession, error) {
	if err := m.checkScope(ctx, ownerID, documentIDs); err != nil {
		return nil, err
	}
	now := time.Now()
	sess := &models.ChatSession{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		DocumentIDs:  documentIDs,
		Status:       models.SessionCreated,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := m.db.CreateChatSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Get returns the session and its messages, owner-only.
func (m *Manager) Get(ctx context.Context, ownerID, sessionID string) (*models.ChatSession, []models.ChatMessage, error) {
	sess, err := m.resolve(ctx, ownerID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := m.db.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("list messages: %w", err)
	}
	return sess, msgs, nil
}

// Ask runs one question turn. The (user, assistant) pair is only recorded
// after the answer exists, in one transaction, so a failed generation never
// leaves a dangling user message. The first turn activates the session.
func (m *Manager) Ask(ctx context.Context, ownerID, sessionID, question string, k int) (*models.AskResult, error) {
	sess, err := m.resolve(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionClosed {
		return nil, fmt.Errorf("%w: session %s", core.ErrSessionClosed, sessionID)
	}
	if k <= 0 {
		k = m.defaultK
	}

	answer, sources, warnings, err := m.answerer.Answer(ctx, sess.DocumentIDs, question, k)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMsg := &models.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   question,
		CreatedAt: now,
	}
	assistantMsg := &models.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   answer,
		Sources:   sources,
		CreatedAt: now,
	}
	if err := m.db.AppendMessagePair(ctx, sessionID, userMsg, assistantMsg); err != nil {
		return nil, fmt.Errorf("append turn: %w", err)
	}
	if sess.Status == models.SessionCreated {
		if err := m.db.UpdateSessionStatus(ctx, sessionID, models.SessionActive); err != nil {
			return nil, fmt.Errorf("activate session: %w", err)
		}
	}
	return &models.AskResult{Answer: answer, Sources: sources, Warnings: warnings}, nil
}

// UpdateDocuments replaces the session's retrieval scope, owner-only.
func (m *Manager) UpdateDocuments(ctx context.Context, ownerID, sessionID string, documentIDs []string) error {
	sess, err := m.resolve(ctx, ownerID, sessionID)
	if err != nil {
		return err
	}
	if sess.Status == models.SessionClosed {
		return fmt.Errorf("%w: session %s", core.ErrSessionClosed, sessionID)
	}
	if err := m.checkScope(ctx, ownerID, documentIDs); err != nil {
		return err
	}
	return m.db.UpdateSessionDocuments(ctx, sessionID, documentIDs)
}

// Close ends the session; further Ask calls fail with SessionClosed.
func (m *Manager) Close(ctx context.Context, ownerID, sessionID string) error {
	if _, err := m.resolve(ctx, ownerID, sessionID); err != nil {
		return err
	}
	return m.db.UpdateSessionStatus(ctx, sessionID, models.SessionClosed)
}

// resolve loads the session and enforces ownership.
func (m *Manager) resolve(ctx context.Context, ownerID, sessionID string) (*models.ChatSession, error) {
	sess, err := m.db.GetChatSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: session %s", core.ErrNotFound, sessionID)
	}
	if sess.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: session %s belongs to another user", core.ErrForbidden, sessionID)
	}
	return sess, nil
}

// checkScope verifies every document exists and is readable by ownerID.
func (m *Manager) checkScope(ctx context.Context, ownerID string, documentIDs []string) error {
	for _, id := range documentIDs {
		doc, err := m.db.GetDocumentByID(ctx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("%w: document %s", core.ErrNotFound, id)
		}
		if doc.OwnerID != ownerID && !doc.IsPublic {
			return fmt.Errorf("%w: document %s is not accessible", core.ErrForbidden, id)
		}
	}
	return nil
}
