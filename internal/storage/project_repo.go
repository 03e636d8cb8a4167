package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_project_store.go -package=mocks qualweave/internal/storage ProjectStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// ProjectStore defines the interface for project storage operations.
type ProjectStore interface {
	// Create inserts a new project, minting an id when none is set.
	Create(ctx context.Context, p *Project) error
	// GetByID returns a project by id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Project, error)
	// ListAll returns all projects in creation order.
	ListAll(ctx context.Context) ([]Project, error)
	// ListNames returns every project name (used for collision suffixing).
	ListNames(ctx context.Context) ([]string, error)
	// Delete removes a project; the schema cascades to all dependents.
	Delete(ctx context.Context, id string) error
}

// ProjectRepo provides methods for project operations.
// It implements the ProjectStore interface.
type ProjectRepo struct {
	db DBTX
}

// NewProjectRepo creates a new ProjectRepo.
func NewProjectRepo(db DBTX) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// Create inserts a new project. A fresh UUID is minted when p.ID is empty.
// ImportedAt is persisted only when set, marking import-created projects.
func (r *ProjectRepo) Create(ctx context.Context, p *Project) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	var importedAt any
	if p.ImportedAt != nil {
		importedAt = p.ImportedAt.UTC().Format("2006-01-02 15:04:05")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (id, name, description, imported_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Name, p.Description, importedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// GetByID returns a project by id, or ErrNotFound.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_at, imported_at FROM projects WHERE id = ?",
		id,
	)
	return scanProject(row)
}

// ListAll returns all projects in creation order.
func (r *ProjectRepo) ListAll(ctx context.Context) ([]Project, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, created_at, imported_at FROM projects ORDER BY created_at, rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var (
			p           Project
			createdAt   string
			importedAt  sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &createdAt, &importedAt); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if importedAt.Valid {
			t, err := parseTimestamp(importedAt.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse imported_at: %w", err)
			}
			p.ImportedAt = &t
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListNames returns every project name.
func (r *ProjectRepo) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name FROM projects")
	if err != nil {
		return nil, fmt.Errorf("failed to query project names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes a project by id. Returns ErrNotFound when no row matched.
func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProject(row *sql.Row) (*Project, error) {
	var (
		p          Project
		createdAt  string
		importedAt sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &createdAt, &importedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if importedAt.Valid {
		t, err := parseTimestamp(importedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse imported_at: %w", err)
		}
		p.ImportedAt = &t
	}
	return &p, nil
}
