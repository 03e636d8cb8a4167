package handlers

import (
	"fmt"
	"io"
	"net/http"

	"qualweave/internal/contextutil"
	"qualweave/internal/importer"
)

// maxArchiveBytes caps uploaded archive size (64 MiB).
const maxArchiveBytes = 64 << 20

// ImportHandler serves archive validation and project import.
type ImportHandler struct {
	imports *importer.Service
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(imports *importer.Service) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// ImportResponse is the success payload of POST /api/import/projects.
type ImportResponse struct {
	ProjectID string         `json:"projectId"`
	Message   string         `json:"message"`
	Stats     map[string]int `json:"stats"`
}

// Validate handles POST /api/import/validate: it parses the uploaded
// archive and reports the required-table check without touching the
// database.
func (h *ImportHandler) Validate(w http.ResponseWriter, r *http.Request) {
	bundle, ok := h.readBundle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, importer.Validate(bundle))
}

// Import handles POST /api/import/projects: all-or-nothing creation of a
// fresh project from the uploaded archive.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bundle, ok := h.readBundle(w, r)
	if !ok {
		return
	}

	summary, err := h.imports.Import(ctx, bundle)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ImportResponse{
		ProjectID: summary.ProjectID,
		Message:   fmt.Sprintf("Project imported as %q", summary.ProjectName),
		Stats:     summary.Counts,
	})
}

// readBundle extracts and parses the multipart "file" upload. On failure
// it writes the error response and returns ok=false.
func (h *ImportHandler) readBundle(w http.ResponseWriter, r *http.Request) (*importer.Bundle, bool) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.ParseMultipartForm(maxArchiveBytes); err != nil {
		logger.WarnContext(ctx, "failed to parse multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "expected a multipart file upload"})
		return nil, false
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file field"})
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxArchiveBytes))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}

	bundle, err := importer.ReadArchive(data)
	if err != nil {
		// Not-a-zip surfaces as a generic failure with the parse error.
		writeError(w, r, err)
		return nil, false
	}
	return bundle, true
}
