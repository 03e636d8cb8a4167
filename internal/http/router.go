package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"qualweave/internal/exporter"
	"qualweave/internal/handlers"
	"qualweave/internal/importer"
	"qualweave/internal/storage"
	"qualweave/internal/transcript"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DB          *sql.DB
	Projects    storage.ProjectStore
	Files       storage.FileStore
	Exports     *exporter.Service
	Imports     *importer.Service
	Transcripts *transcript.Service
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(CORS)

	projectHandler := handlers.NewProjectHandler(deps.Projects)
	fileHandler := handlers.NewFileHandler(deps.Files)
	exportHandler := handlers.NewExportHandler(deps.Exports)
	importHandler := handlers.NewImportHandler(deps.Imports)
	finalizeHandler := handlers.NewFinalizeHandler(deps.Transcripts)
	vttHandler := handlers.NewVTTHandler(deps.Transcripts)
	mergeHandler := handlers.NewParticipantMergeHandler(deps.Transcripts)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", projectHandler.Create)
			r.Get("/", projectHandler.List)
			r.Get("/{id}", projectHandler.Get)
			r.Delete("/{id}", projectHandler.Delete)
			r.Method(http.MethodGet, "/{id}/export", exportHandler)
		})

		r.Route("/import", func(r chi.Router) {
			r.Post("/validate", importHandler.Validate)
			r.Post("/projects", importHandler.Import)
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/{id}", fileHandler.Get)
			r.Get("/{id}/view", fileHandler.View)
		})

		r.Route("/media", func(r chi.Router) {
			r.Method(http.MethodPost, "/{id}/finalize", finalizeHandler)
			r.Method(http.MethodGet, "/{id}/transcript/vtt", vttHandler)
		})

		r.Method(http.MethodPost, "/participants/{id}/merge", mergeHandler)
	})

	return r
}
