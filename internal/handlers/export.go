package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"qualweave/internal/codec"
	"qualweave/internal/contextutil"
	"qualweave/internal/exporter"
)

// ExportHandler serves project exports: a full zip archive
// (?format=zip, the default) or a single entity CSV (?format=csv&entity=...).
type ExportHandler struct {
	exports *exporter.Service
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exports *exporter.Service) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// ServeHTTP handles GET /api/projects/{id}/export.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	projectID := chi.URLParam(r, "id")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "zip"
	}

	switch format {
	case "zip":
		// Build in memory so a NotFound never emits partial bytes.
		var buf bytes.Buffer
		if err := h.exports.WriteArchive(ctx, projectID, &buf); err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="project-export.zip"`)
		w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)

	case "csv":
		entity := r.URL.Query().Get("entity")
		csvText, err := h.exports.EntityCSV(ctx, projectID, entity)
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entity+".csv"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(codec.BOM + csvText))

	default:
		logger.WarnContext(ctx, "unknown export format requested", "format", format)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown export format: " + format})
	}
}
