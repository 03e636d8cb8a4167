package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// FileStore defines the interface for document (file) operations.
type FileStore interface {
	Create(ctx context.Context, f *File) error
	GetByID(ctx context.Context, id string) (*File, error)
	ListByProject(ctx context.Context, projectID string) ([]File, error)
}

// FileRepo provides methods for document (file) operations.
// It implements the FileStore interface.
type FileRepo struct {
	db DBTX
}

// NewFileRepo creates a new FileRepo.
func NewFileRepo(db DBTX) *FileRepo {
	return &FileRepo{db: db}
}

// Create inserts a new file under its project, minting an id when unset.
func (r *FileRepo) Create(ctx context.Context, f *File) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO files (id, project_id, filename, content) VALUES (?, ?, ?, ?)",
		f.ID, f.ProjectID, f.Filename, f.Content,
	)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}
	return nil
}

// GetByID returns a file by id, or ErrNotFound.
func (r *FileRepo) GetByID(ctx context.Context, id string) (*File, error) {
	var (
		f         File
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, project_id, filename, content, created_at FROM files WHERE id = ?",
		id,
	).Scan(&f.ID, &f.ProjectID, &f.Filename, &f.Content, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file: %w", err)
	}
	if f.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &f, nil
}

// ListByProject returns all files of a project in creation order.
func (r *FileRepo) ListByProject(ctx context.Context, projectID string) ([]File, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, project_id, filename, content, created_at FROM files WHERE project_id = ? ORDER BY created_at, rowid",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var (
			f         File
			createdAt string
		)
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Filename, &f.Content, &createdAt); err != nil {
			return nil, err
		}
		if f.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
