package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"qualweave/internal/transcript"
)

// VTTHandler serves media transcripts as WebVTT.
type VTTHandler struct {
	transcripts *transcript.Service
}

// NewVTTHandler creates a new VTTHandler.
func NewVTTHandler(transcripts *transcript.Service) *VTTHandler {
	return &VTTHandler{transcripts: transcripts}
}

// ServeHTTP handles GET /api/media/{id}/transcript/vtt?format=tagged|plain.
func (h *VTTHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mediaID := chi.URLParam(r, "id")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "tagged"
	}
	if format != "tagged" && format != "plain" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown format: " + format})
		return
	}

	vtt, err := h.transcripts.VTT(r.Context(), mediaID, format)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(vtt))
}
