package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"qualweave/internal/transcript"
)

// ParticipantMergeHandler serves participant merge requests.
type ParticipantMergeHandler struct {
	transcripts *transcript.Service
}

// NewParticipantMergeHandler creates a new ParticipantMergeHandler.
func NewParticipantMergeHandler(transcripts *transcript.Service) *ParticipantMergeHandler {
	return &ParticipantMergeHandler{transcripts: transcripts}
}

// MergeRequest is the payload of POST /api/participants/{id}/merge.
type MergeRequest struct {
	TargetID string `json:"targetId"`
}

// ServeHTTP reassigns all of the source participant's segments to the
// target and deletes the source, atomically.
func (h *ParticipantMergeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "id")

	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.TargetID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "targetId is required"})
		return
	}

	result, err := h.transcripts.MergeParticipants(r.Context(), sourceID, req.TargetID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
