package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"qualweave/internal/contextutil"
	"qualweave/internal/exporter"
	"qualweave/internal/importer"
	"qualweave/internal/storage"
	"qualweave/internal/transcript"
)

// errorResponse is the JSON error payload shared by all handlers.
type errorResponse struct {
	Error        string   `json:"error"`
	MissingFiles []string `json:"missingFiles,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors onto status codes and emits the JSON
// error payload. Unrecognized errors become 500s.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := contextutil.LoggerFromContext(r.Context())

	var (
		missingTables *importer.MissingTablesError
		parseErr      *importer.ParseError
	)
	switch {
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, transcript.ErrNoSegments):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &missingTables):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:        missingTables.Error(),
			MissingFiles: missingTables.Missing,
		})
	case errors.As(err, &parseErr),
		errors.Is(err, exporter.ErrUnknownEntity),
		errors.Is(err, transcript.ErrInvalidMerge):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logger.ErrorContext(r.Context(), "request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
