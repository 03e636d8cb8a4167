package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"qualweave/internal/transcript"
)

// FinalizeHandler serves the one-time transcript finalize operation.
type FinalizeHandler struct {
	transcripts *transcript.Service
}

// NewFinalizeHandler creates a new FinalizeHandler.
func NewFinalizeHandler(transcripts *transcript.Service) *FinalizeHandler {
	return &FinalizeHandler{transcripts: transcripts}
}

// ServeHTTP handles POST /api/media/{id}/finalize. The first call answers
// 201; repeats answer 200 with the same mapping. A missing media file or
// an empty transcript answers 404.
func (h *FinalizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mediaID := chi.URLParam(r, "id")

	result, err := h.transcripts.Finalize(r.Context(), mediaID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}
