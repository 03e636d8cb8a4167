package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"qualweave/internal/contextutil"
	"qualweave/internal/storage"
)

// FileHandler serves documents: raw JSON and a rendered HTML view.
type FileHandler struct {
	files    storage.FileStore
	parser   goldmark.Markdown
	template *template.Template
}

// filePageData holds template data for rendered document pages.
type filePageData struct {
	Filename string
	Content  template.HTML
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(files storage.FileStore) *FileHandler {
	tmpl := template.Must(template.New("file").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Filename}}</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 860px;
      line-height: 1.7;
    }
    pre {
      background: #f6f8fa;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 8px;
    }
    blockquote {
      border-left: 4px solid #d0d7de;
      padding-left: 1rem;
      margin-left: 0;
      color: #57606a;
    }
  </style>
</head>
<body>
  <h1>{{.Filename}}</h1>
  <article>{{.Content}}</article>
</body>
</html>`))

	return &FileHandler{
		files: files,
		parser: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(ghhtml.WithHardWraps()),
		),
		template: tmpl,
	}
}

// FileResponse is the JSON shape of a document.
type FileResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// Get handles GET /api/files/{id}.
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	file, err := h.files.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FileResponse{
		ID:        file.ID,
		ProjectID: file.ProjectID,
		Filename:  file.Filename,
		Content:   file.Content,
		CreatedAt: file.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// View handles GET /api/files/{id}/view, rendering the document content
// as an HTML page. Plain transcript documents render fine through the
// markdown pipeline since hard wraps are preserved.
func (h *FileHandler) View(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	file, err := h.files.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.parser.Convert([]byte(file.Content), &buf); err != nil {
		writeError(w, r, fmt.Errorf("convert document: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, filePageData{
		Filename: file.Filename,
		Content:  template.HTML(buf.String()),
	}); err != nil {
		logger.ErrorContext(ctx, "failed to execute file template", "file_id", file.ID, "error", err)
	}
}
