package models

import (
	"time"
)

// Document statuses as stored in the documents table.
const (
	DocStatusProcessing = "processing"
	DocStatusReady      = "ready"
	DocStatusFailed     = "failed"
)

// Session statuses as stored in the chat_sessions table.
const (
	SessionCreated = "created"
	SessionActive  = "active"
	SessionClosed  = "closed"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Document represents one ingested transcript source, owned by a single user.
// A (OwnerID, SourceRef) pair is unique; re-ingesting it is a no-op.
type Document struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	SourceRef string    `db:"source_ref" json:"source_ref"`
	Title     string    `db:"title" json:"title"`
	RawText   string    `db:"raw_text" json:"-"`
	Status    string    `db:"status" json:"status"` // processing | ready | failed
	IsPublic  bool      `db:"is_public" json:"is_public"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Chunk is one bounded, possibly overlapping substring of a document's raw text.
// Chunks are immutable and live exactly as long as their document.
type Chunk struct {
	ID          string `db:"id" json:"id"`
	DocumentID  string `db:"document_id" json:"document_id"`
	Ordinal     int    `db:"ordinal" json:"ordinal"`
	Text        string `db:"text" json:"text"`
	StartOffset int    `db:"start_offset" json:"start_offset"`
	EndOffset   int    `db:"end_offset" json:"end_offset"`
}

// ChatSession scopes a conversation to a set of documents.
// DocumentIDs defines the retrieval scope for every question asked in it.
type ChatSession struct {
	ID           string    `db:"id" json:"id"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	DocumentIDs  []string  `db:"document_ids" json:"document_ids"`
	Status       string    `db:"status" json:"status"` // created | active | closed
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	LastActivity time.Time `db:"last_activity" json:"last_activity"`
}

// ChatMessage is one message in a session. Messages are only ever written
// in (user, assistant) pairs, so a session's message count stays even.
type ChatMessage struct {
	ID        string      `db:"id" json:"id"`
	SessionID string      `db:"session_id" json:"session_id"`
	Role      string      `db:"role" json:"role"` // "user" or "assistant"
	Content   string      `db:"content" json:"content"`
	Sources   []SourceRef `db:"sources" json:"sources,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// SourceRef is a citation attached to an assistant message.
type SourceRef struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	ChunkID    string  `json:"chunk_id"`
	Score      float64 `json:"score"`
}

// RetrievalResult is a transient similarity hit. Ordinal and Text ride along
// so downstream consumers never have to re-read chunk rows.
type RetrievalResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Ordinal    int     `json:"ordinal"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// IngestResult is returned by document ingestion.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	IsNew      bool   `json:"is_new"`
}

// AskResult is returned by a question asked against a session.
type AskResult struct {
	Answer   string      `json:"answer"`
	Sources  []SourceRef `json:"sources"`
	Warnings []string    `json:"warnings,omitempty"`
}
