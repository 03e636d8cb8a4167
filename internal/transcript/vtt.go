package transcript

import (
	"context"

	"qualweave/internal/codec"
	"qualweave/internal/storage"
)

// VTT renders a media file's transcript as WebVTT. format is "tagged"
// (voice tags, the default) or "plain" (speaker-prefixed text bodies).
// Returns storage.ErrNotFound when the media file does not exist and
// ErrNoSegments when it has no transcript.
func (s *Service) VTT(ctx context.Context, mediaID, format string) (string, error) {
	mediaRepo := storage.NewMediaRepo(s.db)
	segmentRepo := storage.NewSegmentRepo(s.db)
	participantRepo := storage.NewParticipantRepo(s.db)

	if _, err := mediaRepo.GetByID(ctx, mediaID); err != nil {
		return "", err
	}

	segments, err := segmentRepo.ListByMedia(ctx, mediaID)
	if err != nil {
		return "", err
	}
	if len(segments) == 0 {
		return "", ErrNoSegments
	}

	participants, err := participantRepo.ListByMedia(ctx, mediaID)
	if err != nil {
		return "", err
	}
	names := make(map[string]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.Name
	}

	vttSegments := make([]codec.VTTSegment, 0, len(segments))
	for _, seg := range segments {
		vs := codec.VTTSegment{Idx: seg.Idx, StartMs: seg.StartMs, EndMs: seg.EndMs, Text: seg.Text}
		if seg.ParticipantID != nil {
			vs.ParticipantID = *seg.ParticipantID
		}
		vttSegments = append(vttSegments, vs)
	}

	return codec.ComposeVTT(vttSegments, names, format != "plain"), nil
}
