// Package transcript holds the operations built on a media file's
// transcript: the one-time finalize conversion into a document, WebVTT
// rendering, and participant merging.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	"qualweave/internal/codec"
	"qualweave/internal/contextutil"
	"qualweave/internal/storage"
)

var (
	// ErrNoSegments is returned when an operation needs transcript
	// segments and the media file has none.
	ErrNoSegments = errors.New("media file has no transcript segments")
	// ErrInvalidMerge is returned when a participant merge names an
	// invalid source/target pair.
	ErrInvalidMerge = errors.New("invalid participant merge")
)

// FinalizeResult is the outcome of a finalize call. Created is false when
// the media file was already finalized and the existing mapping was
// returned instead.
type FinalizeResult struct {
	MediaFileID          string `json:"mediaFileId"`
	FileID               string `json:"fileId"`
	OriginalSegmentCount int    `json:"originalSegmentCount"`
	Created              bool   `json:"-"`
}

// MergeResult is the outcome of a participant merge.
type MergeResult struct {
	TargetID           string `json:"targetId"`
	SegmentsReassigned int64  `json:"segmentsReassigned"`
}

// Service implements the finalize engine and its sibling transcript
// operations.
type Service struct {
	db *sql.DB

	// Runs after the missing-mapping check and before the finalize
	// transaction; lets tests interleave a competing finalize.
	beforeMappingInsert func()
}

// NewService creates a transcript service over the given database.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Finalize converts a media file's transcript segments into an immutable
// document, exactly once. Repeat calls (including concurrent ones racing
// the finalize_mappings primary key) return the first call's mapping
// unchanged; no second file is ever created.
func (s *Service) Finalize(ctx context.Context, mediaID string) (*FinalizeResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	mediaRepo := storage.NewMediaRepo(s.db)
	finalizeRepo := storage.NewFinalizeRepo(s.db)
	segmentRepo := storage.NewSegmentRepo(s.db)

	media, err := mediaRepo.GetByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	if existing, err := finalizeRepo.Get(ctx, mediaID); err == nil {
		return resultFromMapping(existing, false), nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	segments, err := segmentRepo.ListByMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	if s.beforeMappingInsert != nil {
		s.beforeMappingInsert()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	file := &storage.File{
		ProjectID: media.ProjectID,
		Filename:  transcriptFilename(media.OriginalFilename),
		Content:   ComposeDocument(segments),
	}
	if err := storage.NewFileRepo(tx).Create(ctx, file); err != nil {
		return nil, err
	}

	mapping := &storage.FinalizeMapping{
		MediaFileID:          mediaID,
		FileID:               file.ID,
		OriginalSegmentCount: len(segments),
	}
	err = storage.NewFinalizeRepo(tx).Create(ctx, mapping)
	if errors.Is(err, storage.ErrConflict) {
		// Lost the race: roll back our file and return the winner's row.
		_ = tx.Rollback()
		winner, getErr := finalizeRepo.Get(ctx, mediaID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to read winning finalize mapping: %w", getErr)
		}
		logger.InfoContext(ctx, "finalize race lost, returning existing mapping",
			"media_file_id", mediaID, "file_id", winner.FileID)
		return resultFromMapping(winner, false), nil
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit finalize: %w", err)
	}

	logger.InfoContext(ctx, "media finalized",
		"media_file_id", mediaID, "file_id", file.ID, "segments", len(segments))
	return resultFromMapping(mapping, true), nil
}

// ComposeDocument renders the finalized document text: for each segment a
// bracketed time range with the speaker label when one exists, then the
// segment text on the next line. The companion text viewer parses this
// exact shape.
func ComposeDocument(segments []storage.SegmentWithSpeaker) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("[" + codec.FormatTimestamp(seg.StartMs) + " - " + codec.FormatTimestamp(seg.EndMs) + "]")
		if seg.Speaker != "" {
			b.WriteString(" " + seg.Speaker + ":")
		}
		b.WriteString("\n")
		b.WriteString(seg.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func transcriptFilename(originalFilename string) string {
	base := path.Base(strings.ReplaceAll(originalFilename, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		base = "media"
	}
	return base + " (transcript).txt"
}

func resultFromMapping(m *storage.FinalizeMapping, created bool) *FinalizeResult {
	return &FinalizeResult{
		MediaFileID:          m.MediaFileID,
		FileID:               m.FileID,
		OriginalSegmentCount: m.OriginalSegmentCount,
		Created:              created,
	}
}
