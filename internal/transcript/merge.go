package transcript

import (
	"context"
	"fmt"

	"qualweave/internal/contextutil"
	"qualweave/internal/storage"
)

// MergeParticipants reassigns every segment of the source participant to
// the target and deletes the source, all inside one transaction. A partial
// merge is never observable. Source and target must belong to the same
// media file and must differ.
func (s *Service) MergeParticipants(ctx context.Context, sourceID, targetID string) (*MergeResult, error) {
	if sourceID == targetID {
		return nil, fmt.Errorf("%w: source and target are the same participant", ErrInvalidMerge)
	}

	participantRepo := storage.NewParticipantRepo(s.db)
	source, err := participantRepo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := participantRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if source.MediaFileID != target.MediaFileID {
		return nil, fmt.Errorf("%w: participants belong to different media files", ErrInvalidMerge)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	reassigned, err := storage.NewSegmentRepo(tx).Reassign(ctx, sourceID, targetID)
	if err != nil {
		return nil, err
	}
	if err := storage.NewParticipantRepo(tx).Delete(ctx, sourceID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit merge: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "participants merged",
		"source_id", sourceID, "target_id", targetID, "segments_reassigned", reassigned)
	return &MergeResult{TargetID: targetID, SegmentsReassigned: reassigned}, nil
}
