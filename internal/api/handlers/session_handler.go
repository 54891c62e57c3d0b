package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	middleware "github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/api/middlewares"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core/session"
	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/models"
)

type SessionHandler struct {
	manager  *session.Manager
	validate *validator.Validate
}

func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager, validate: validator.New()}
}

type createSessionRequest struct {
	DocumentIDs []string `json:"document_ids" validate:"dive,required"`
}

type askRequest struct {
	Question string `json:"question" validate:"required"`
	K        int    `json:"k" validate:"gte=0"`
}

type updateDocumentsRequest struct {
	DocumentIDs []string `json:"document_ids" validate:"dive,required"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocumentIDs == nil {
		req.DocumentIDs = []string{}
	}

	sess, err := h.manager.Create(r.Context(), ownerID, req.DocumentIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

type sessionResponse struct {
	Session  *models.ChatSession  `json:"session"`
	Messages []models.ChatMessage `json:"messages"`
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sess, msgs, err := h.manager.Get(r.Context(), ownerID, chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, sessionResponse{Session: sess, Messages: msgs})
}

// Ask runs one question turn against the session's document scope.
func (h *SessionHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.manager.Ask(r.Context(), ownerID, chi.URLParam(r, "sessionID"), req.Question, req.K)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionHandler) UpdateDocuments(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req updateDocumentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.DocumentIDs == nil {
		req.DocumentIDs = []string{}
	}

	if err := h.manager.UpdateDocuments(r.Context(), ownerID, chi.URLParam(r, "sessionID"), req.DocumentIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.manager.Close(r.Context(), ownerID, chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
