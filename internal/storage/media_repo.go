package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// MediaRepo provides methods for media file operations. The status column
// mirrors the transcription job lifecycle; the job queue writes it through
// its own subsystem, this repo only reads and seeds it.
type MediaRepo struct {
	db DBTX
}

// NewMediaRepo creates a new MediaRepo.
func NewMediaRepo(db DBTX) *MediaRepo {
	return &MediaRepo{db: db}
}

// Create inserts a new media file, minting an id when unset. Status
// defaults to "uploaded" when empty.
func (r *MediaRepo) Create(ctx context.Context, m *MediaFile) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = "uploaded"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO media_files (id, project_id, original_filename, mime_type,
			storage_path, size_bytes, duration_sec, status, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProjectID, m.OriginalFilename, m.MimeType,
		m.StoragePath, m.SizeBytes, m.DurationSec, m.Status, m.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert media file: %w", err)
	}
	return nil
}

// GetByID returns a media file by id, or ErrNotFound.
func (r *MediaRepo) GetByID(ctx context.Context, id string) (*MediaFile, error) {
	var (
		m         MediaFile
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, project_id, original_filename, mime_type, storage_path,
			size_bytes, duration_sec, status, error_message, created_at
		 FROM media_files WHERE id = ?`,
		id,
	).Scan(&m.ID, &m.ProjectID, &m.OriginalFilename, &m.MimeType, &m.StoragePath,
		&m.SizeBytes, &m.DurationSec, &m.Status, &m.ErrorMessage, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query media file: %w", err)
	}
	if m.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &m, nil
}

// ListByProject returns all media files of a project in creation order.
func (r *MediaRepo) ListByProject(ctx context.Context, projectID string) ([]MediaFile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, original_filename, mime_type, storage_path,
			size_bytes, duration_sec, status, error_message, created_at
		 FROM media_files WHERE project_id = ? ORDER BY created_at, rowid`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query media files: %w", err)
	}
	defer rows.Close()

	var media []MediaFile
	for rows.Next() {
		var (
			m         MediaFile
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.OriginalFilename, &m.MimeType, &m.StoragePath,
			&m.SizeBytes, &m.DurationSec, &m.Status, &m.ErrorMessage, &createdAt); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		media = append(media, m)
	}
	return media, rows.Err()
}
