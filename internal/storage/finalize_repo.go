package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// FinalizeRepo provides methods for finalize mapping operations. The table
// is keyed by media_file_id, which is what makes a concurrent double
// finalize lose with ErrConflict instead of writing a second mapping.
type FinalizeRepo struct {
	db DBTX
}

// NewFinalizeRepo creates a new FinalizeRepo.
func NewFinalizeRepo(db DBTX) *FinalizeRepo {
	return &FinalizeRepo{db: db}
}

// Get returns the finalize mapping for a media file, or ErrNotFound.
func (r *FinalizeRepo) Get(ctx context.Context, mediaID string) (*FinalizeMapping, error) {
	var (
		m           FinalizeMapping
		finalizedAt string
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT media_file_id, file_id, finalized_at, original_segment_count FROM finalize_mappings WHERE media_file_id = ?",
		mediaID,
	).Scan(&m.MediaFileID, &m.FileID, &finalizedAt, &m.OriginalSegmentCount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query finalize mapping: %w", err)
	}
	if m.FinalizedAt, err = parseTimestamp(finalizedAt); err != nil {
		return nil, fmt.Errorf("failed to parse finalized_at: %w", err)
	}
	return &m, nil
}

// Create inserts a finalize mapping. When the media file already has one,
// the primary key rejects the insert and ErrConflict is returned; callers
// recover by re-reading the winner's row.
func (r *FinalizeRepo) Create(ctx context.Context, m *FinalizeMapping) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO finalize_mappings (media_file_id, file_id, original_segment_count) VALUES (?, ?, ?)",
		m.MediaFileID, m.FileID, m.OriginalSegmentCount,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert finalize mapping: %w", err)
	}
	return nil
}
