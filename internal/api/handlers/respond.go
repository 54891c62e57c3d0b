package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/HARISUNDARRAJENDRAN/StreamSmart-sub000/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("API: encoding response: %v", err)
	}
}

// writeError maps domain errors to HTTP statuses. Anything unrecognized is a
// plain 500 with a generic body so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, core.ErrInvalidConfig):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, core.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, core.ErrSessionClosed):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, core.ErrRetrievalTimeout):
		status, msg = http.StatusGatewayTimeout, err.Error()
	case errors.Is(err, core.ErrTranscriptUnavailable),
		errors.Is(err, core.ErrEmbeddingUnavailable),
		errors.Is(err, core.ErrAnswerGenerationFailed):
		status, msg = http.StatusBadGateway, err.Error()
	default:
		log.Printf("API: internal error: %v", err)
	}

	writeJSON(w, status, map[string]string{"error": msg})
}
