package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	middleware "github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/api/middlewares"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/ingest"
)

type DocumentHandler struct {
	db       core.DbClient
	ingestor *ingest.Service
	validate *validator.Validate
}

func NewDocumentHandler(db core.DbClient, ingestor *ingest.Service) *DocumentHandler {
	return &DocumentHandler{db: db, ingestor: ingestor, validate: validator.New()}
}

type ingestRequest struct {
	SourceRef string `json:"source_ref" validate:"required"`
	Title     string `json:"title"`
	IsPublic  bool   `json:"is_public"`
}

// Ingest fetches, chunks, embeds and indexes the transcript behind
// source_ref. Re-posting a source_ref the caller already ingested returns the
// existing document with is_new=false.
func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.ingestor.Ingest(r.Context(), ownerID, req.SourceRef, req.Title, req.IsPublic)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if res.IsNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	docs, err := h.db.ListDocumentsByOwner(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	doc, err := h.db.GetDocumentByID(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if doc == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	if doc.OwnerID != ownerID && !doc.IsPublic {
		http.Error(w, "document is not accessible", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.ingestor.Delete(r.Context(), ownerID, chi.URLParam(r, "documentID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reindex schedules a background rebuild of the document's index from its
// stored transcript.
func (h *DocumentHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.ingestor.EnqueueReindex(r.Context(), ownerID, chi.URLParam(r, "documentID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
