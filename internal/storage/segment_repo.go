package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// SegmentRepo provides methods for transcript segment operations.
type SegmentRepo struct {
	db DBTX
}

// NewSegmentRepo creates a new SegmentRepo.
func NewSegmentRepo(db DBTX) *SegmentRepo {
	return &SegmentRepo{db: db}
}

// Create inserts a new segment, minting an id when unset.
func (r *SegmentRepo) Create(ctx context.Context, s *TranscriptSegment) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.StartMs < 0 || s.EndMs < s.StartMs {
		return fmt.Errorf("invalid segment time range [%d, %d]", s.StartMs, s.EndMs)
	}
	var participantID any
	if s.ParticipantID != nil {
		participantID = *s.ParticipantID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transcript_segments (id, media_file_id, participant_id, idx, start_ms, end_ms, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.MediaFileID, participantID, s.Idx, s.StartMs, s.EndMs, s.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to insert segment: %w", err)
	}
	return nil
}

// ListByMedia returns a media file's segments in idx order, each joined
// with its participant's name (empty when unattributed).
func (r *SegmentRepo) ListByMedia(ctx context.Context, mediaID string) ([]SegmentWithSpeaker, error) {
	return r.list(ctx,
		`SELECT s.id, s.media_file_id, s.participant_id, s.idx, s.start_ms, s.end_ms, s.text,
			COALESCE(p.name, '')
		 FROM transcript_segments s
		 LEFT JOIN participants p ON p.id = s.participant_id
		 WHERE s.media_file_id = ?
		 ORDER BY s.idx`,
		mediaID,
	)
}

// ListByProject returns all segments of a project, joined through media
// files, ordered by media creation then idx.
func (r *SegmentRepo) ListByProject(ctx context.Context, projectID string) ([]SegmentWithSpeaker, error) {
	return r.list(ctx,
		`SELECT s.id, s.media_file_id, s.participant_id, s.idx, s.start_ms, s.end_ms, s.text,
			COALESCE(p.name, '')
		 FROM transcript_segments s
		 JOIN media_files m ON m.id = s.media_file_id
		 LEFT JOIN participants p ON p.id = s.participant_id
		 WHERE m.project_id = ?
		 ORDER BY m.created_at, m.rowid, s.idx`,
		projectID,
	)
}

// Reassign moves every segment of the source participant to the target
// participant. Used by the merge operation, inside its transaction.
func (r *SegmentRepo) Reassign(ctx context.Context, fromParticipantID, toParticipantID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE transcript_segments SET participant_id = ? WHERE participant_id = ?",
		toParticipantID, fromParticipantID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign segments: %w", err)
	}
	return res.RowsAffected()
}

func (r *SegmentRepo) list(ctx context.Context, query string, args ...any) ([]SegmentWithSpeaker, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segments []SegmentWithSpeaker
	for rows.Next() {
		var (
			s             SegmentWithSpeaker
			participantID sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.MediaFileID, &participantID, &s.Idx,
			&s.StartMs, &s.EndMs, &s.Text, &s.Speaker); err != nil {
			return nil, err
		}
		if participantID.Valid {
			id := participantID.String
			s.ParticipantID = &id
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}
