package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// Client implements core.DbClient on Postgres.
type Client struct {
	db *sql.DB
}

func NewClient(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// CreateDocument inserts the document unless its (owner_id, source_ref)
// already exists. The insert is the cross-process ingestion claim.
func (c *Client) CreateDocument(ctx context.Context, doc *models.Document) (bool, error) {
	if doc == nil {
		return false, errors.New("nil document")
	}
	const q = `
		INSERT INTO documents
			(id, owner_id, source_ref, title, raw_text, status, is_public, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), COALESCE($9, now()))
		ON CONFLICT (owner_id, source_ref) DO NOTHING
	`
	res, err := c.db.ExecContext(ctx, q,
		doc.ID, doc.OwnerID, doc.SourceRef, doc.Title, doc.RawText, doc.Status, doc.IsPublic, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const documentColumns = `id, owner_id, source_ref, title, raw_text, status, is_public, created_at, updated_at`

func scanDocument(row *sql.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.OwnerID, &d.SourceRef, &d.Title, &d.RawText, &d.Status, &d.IsPublic, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(c.db.QueryRowContext(ctx, q, id))
}

func (c *Client) GetDocumentBySource(ctx context.Context, ownerID, sourceRef string) (*models.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE owner_id = $1 AND source_ref = $2`
	return scanDocument(c.db.QueryRowContext(ctx, q, ownerID, sourceRef))
}

func (c *Client) ListDocumentsByOwner(ctx context.Context, ownerID string) ([]models.Document, error) {
	const q = `
		SELECT id, owner_id, source_ref, title, status, is_public, created_at, updated_at
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.SourceRef, &d.Title, &d.Status, &d.IsPublic, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (c *Client) GetDocumentTitles(ctx context.Context, ids []string) (map[string]string, error) {
	titles := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	q := `SELECT id, title FROM documents WHERE id IN (` + strings.Join(placeholders, ", ") + `)`
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		titles[id] = title
	}
	return titles, rows.Err()
}

func (c *Client) UpdateDocumentStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE documents SET status = $2, updated_at = now() WHERE id = $1`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: document %s", core.ErrNotFound, id)
	}
	return nil
}

func (c *Client) SetDocumentText(ctx context.Context, id, rawText string) error {
	const q = `UPDATE documents SET raw_text = $2, updated_at = now() WHERE id = $1`
	res, err := c.db.ExecContext(ctx, q, id, rawText)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: document %s", core.ErrNotFound, id)
	}
	return nil
}

// DeleteDocument removes the document; document_index rows go with it via
// ON DELETE CASCADE, keeping index lifetime tied to the document.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := c.db.ExecContext(ctx, q, id)
	return err
}

func (c *Client) CreateChatSession(ctx context.Context, session *models.ChatSession) error {
	if session == nil {
		return errors.New("nil session")
	}
	docIDs, err := json.Marshal(session.DocumentIDs)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO chat_sessions (id, owner_id, document_ids, status, created_at, last_activity)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()), COALESCE($6, now()))
	`
	_, err = c.db.ExecContext(ctx, q,
		session.ID, session.OwnerID, docIDs, session.Status, session.CreatedAt, session.LastActivity)
	return err
}

func (c *Client) GetChatSession(ctx context.Context, id string) (*models.ChatSession, error) {
	const q = `
		SELECT id, owner_id, document_ids, status, created_at, last_activity
		FROM chat_sessions WHERE id = $1
	`
	var s models.ChatSession
	var docIDs []byte
	err := c.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.OwnerID, &docIDs, &s.Status, &s.CreatedAt, &s.LastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docIDs, &s.DocumentIDs); err != nil {
		return nil, fmt.Errorf("decode document_ids: %w", err)
	}
	return &s, nil
}

func (c *Client) UpdateSessionDocuments(ctx context.Context, id string, documentIDs []string) error {
	docIDs, err := json.Marshal(documentIDs)
	if err != nil {
		return err
	}
	const q = `UPDATE chat_sessions SET document_ids = $2 WHERE id = $1`
	res, err := c.db.ExecContext(ctx, q, id, docIDs)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: session %s", core.ErrNotFound, id)
	}
	return nil
}

func (c *Client) UpdateSessionStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE chat_sessions SET status = $2 WHERE id = $1`
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: session %s", core.ErrNotFound, id)
	}
	return nil
}

// AppendMessagePair records one full turn atomically: both messages and the
// session's last_activity move in a single transaction.
func (c *Client) AppendMessagePair(ctx context.Context, sessionID string, userMsg, assistantMsg *models.ChatMessage) error {
	if userMsg == nil || assistantMsg == nil {
		return errors.New("nil message in pair")
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO chat_messages (id, session_id, role, content, sources, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
	`
	for _, msg := range []*models.ChatMessage{userMsg, assistantMsg} {
		var sources []byte
		if msg.Sources != nil {
			if sources, err = json.Marshal(msg.Sources); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, q, msg.ID, sessionID, msg.Role, msg.Content, sources, msg.CreatedAt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET last_activity = now() WHERE id = $1`, sessionID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	const q = `
		SELECT id, session_id, role, content, sources, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC, role DESC
	`
	rows, err := c.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var sources []byte
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &sources, &m.CreatedAt); err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &m.Sources); err != nil {
				return nil, fmt.Errorf("decode sources: %w", err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

var _ core.DbClient = (*Client)(nil)
