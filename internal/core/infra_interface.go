package core

import (
	"context"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

// DbClient defines all persistence operations the services need. It abstracts
// Postgres so higher layers never depend on a specific database.
type DbClient interface {
	// CreateDocument inserts the document unless its (owner_id, source_ref)
	// pair already exists. It reports whether a row was actually inserted;
	// the insert doubles as the ingestion claim row.
	CreateDocument(ctx context.Context, doc *models.Document) (inserted bool, err error)
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	GetDocumentBySource(ctx context.Context, ownerID, sourceRef string) (*models.Document, error)
	ListDocumentsByOwner(ctx context.Context, ownerID string) ([]models.Document, error)
	GetDocumentTitles(ctx context.Context, ids []string) (map[string]string, error)
	UpdateDocumentStatus(ctx context.Context, id, status string) error
	SetDocumentText(ctx context.Context, id, rawText string) error
	// DeleteDocument removes the document and, via cascade, its index rows.
	DeleteDocument(ctx context.Context, id string) error

	CreateChatSession(ctx context.Context, session *models.ChatSession) error
	GetChatSession(ctx context.Context, id string) (*models.ChatSession, error)
	UpdateSessionDocuments(ctx context.Context, id string, documentIDs []string) error
	UpdateSessionStatus(ctx context.Context, id, status string) error
	// AppendMessagePair writes both messages of one turn in a single
	// transaction and bumps the session's last_activity.
	AppendMessagePair(ctx context.Context, sessionID string, userMsg, assistantMsg *models.ChatMessage) error
	ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any compatible object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
	DeleteFile(ctx context.Context, bucket, key string) error
}
