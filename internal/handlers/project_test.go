package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"qualweave/internal/storage"
	"qualweave/internal/storage/mocks"
)

func projectRouter(h *ProjectHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/projects", h.Create)
	r.Get("/api/projects", h.List)
	r.Get("/api/projects/{id}", h.Get)
	r.Delete("/api/projects/{id}", h.Delete)
	return r
}

func TestProjectHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockProjectStore(ctrl)
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	store.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, p *storage.Project) error {
			p.ID = "proj-1"
			return nil
		})
	store.EXPECT().GetByID(gomock.Any(), "proj-1").Return(
		&storage.Project{ID: "proj-1", Name: "Study", Description: "d", CreatedAt: created}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/projects",
		strings.NewReader(`{"name": "Study", "description": "d"}`))
	rec := httptest.NewRecorder()
	projectRouter(NewProjectHandler(store)).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}
	var resp ProjectResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "proj-1" || resp.Name != "Study" {
		t.Errorf("response = %+v", resp)
	}
	if resp.CreatedAt != "2026-08-01T12:00:00Z" {
		t.Errorf("createdAt = %q, want RFC3339 UTC", resp.CreatedAt)
	}
	if resp.ImportedAt != nil {
		t.Errorf("importedAt = %v, want omitted", *resp.ImportedAt)
	}
}

func TestProjectHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty name", `{"name": ""}`},
		{"missing name", `{"description": "d"}`},
		{"invalid json", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockProjectStore(ctrl)

			req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			projectRouter(NewProjectHandler(store)).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestProjectHandler_GetNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockProjectStore(ctrl)
	store.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/missing", nil)
	rec := httptest.NewRecorder()
	projectRouter(NewProjectHandler(store)).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestProjectHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockProjectStore(ctrl)
	store.EXPECT().ListAll(gomock.Any()).Return([]storage.Project{
		{ID: "a", Name: "First"},
		{ID: "b", Name: "Second"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()
	projectRouter(NewProjectHandler(store)).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp []ProjectResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].ID != "a" || resp[1].ID != "b" {
		t.Errorf("response = %+v", resp)
	}
}

func TestProjectHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockProjectStore(ctrl)
	store.EXPECT().Delete(gomock.Any(), "proj-1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/projects/proj-1", nil)
	rec := httptest.NewRecorder()
	projectRouter(NewProjectHandler(store)).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestProjectHandler_DeleteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockProjectStore(ctrl)
	store.EXPECT().Delete(gomock.Any(), "proj-1").Return(errors.New("disk on fire"))

	req := httptest.NewRequest(http.MethodDelete, "/api/projects/proj-1", nil)
	rec := httptest.NewRecorder()
	projectRouter(NewProjectHandler(store)).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
