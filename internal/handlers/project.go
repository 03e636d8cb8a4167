package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"qualweave/internal/contextutil"
	"qualweave/internal/storage"
)

// ProjectHandler serves project CRUD.
type ProjectHandler struct {
	projects storage.ProjectStore
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects storage.ProjectStore) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// CreateProjectRequest is the payload of POST /api/projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProjectResponse is the JSON shape of a project.
type ProjectResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"createdAt"`
	ImportedAt  *string `json:"importedAt,omitempty"`
}

// Create handles POST /api/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "name is required"})
		return
	}

	project := &storage.Project{Name: req.Name, Description: req.Description}
	if err := h.projects.Create(ctx, project); err != nil {
		writeError(w, r, err)
		return
	}
	logger.InfoContext(ctx, "project created", "project_id", project.ID, "name", project.Name)

	created, err := h.projects.GetByID(ctx, project.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectResponse(created))
}

// List handles GET /api/projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectResponse(&projects[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /api/projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.projects.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(project))
}

// Delete handles DELETE /api/projects/{id}. The schema cascades the
// delete to every dependent entity.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toProjectResponse(p *storage.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.ImportedAt != nil {
		s := p.ImportedAt.UTC().Format(time.RFC3339)
		resp.ImportedAt = &s
	}
	return resp
}
