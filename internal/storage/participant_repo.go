package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// ParticipantRepo provides methods for transcript participant operations.
type ParticipantRepo struct {
	db DBTX
}

// NewParticipantRepo creates a new ParticipantRepo.
func NewParticipantRepo(db DBTX) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// Create inserts a new participant, minting an id when unset.
func (r *ParticipantRepo) Create(ctx context.Context, p *Participant) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO participants (id, media_file_id, name, canonical_key, color) VALUES (?, ?, ?, ?, ?)",
		p.ID, p.MediaFileID, p.Name, p.CanonicalKey, p.Color,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// GetByID returns a participant by id, or ErrNotFound.
func (r *ParticipantRepo) GetByID(ctx context.Context, id string) (*Participant, error) {
	var p Participant
	err := r.db.QueryRowContext(ctx,
		"SELECT id, media_file_id, name, canonical_key, color FROM participants WHERE id = ?",
		id,
	).Scan(&p.ID, &p.MediaFileID, &p.Name, &p.CanonicalKey, &p.Color)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query participant: %w", err)
	}
	return &p, nil
}

// ListByMedia returns a media file's participants ordered by name.
func (r *ParticipantRepo) ListByMedia(ctx context.Context, mediaID string) ([]Participant, error) {
	return r.list(ctx,
		"SELECT id, media_file_id, name, canonical_key, color FROM participants WHERE media_file_id = ? ORDER BY name, id",
		mediaID,
	)
}

// ListByProject returns all participants of a project, joined through
// media files, ordered by media creation then name.
func (r *ParticipantRepo) ListByProject(ctx context.Context, projectID string) ([]Participant, error) {
	return r.list(ctx,
		`SELECT p.id, p.media_file_id, p.name, p.canonical_key, p.color
		 FROM participants p
		 JOIN media_files m ON m.id = p.media_file_id
		 WHERE m.project_id = ?
		 ORDER BY m.created_at, m.rowid, p.name, p.id`,
		projectID,
	)
}

// Delete removes a participant by id. Returns ErrNotFound when no row
// matched. Segments pointing at the participant are left to the schema's
// ON DELETE SET NULL unless reassigned first (see SegmentRepo.Reassign).
func (r *ParticipantRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM participants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
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

func (r *ParticipantRepo) list(ctx context.Context, query string, args ...any) ([]Participant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.MediaFileID, &p.Name, &p.CanonicalKey, &p.Color); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
