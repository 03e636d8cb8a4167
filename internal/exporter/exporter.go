// Package exporter serializes a project's full entity graph into CSV
// tables and zip archives. Export is a pure read: given the same database
// state it produces the same byte stream, and it never mutates a row.
package exporter

import (
	"archive/zip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"qualweave/internal/codec"
	"qualweave/internal/contextutil"
	"qualweave/internal/storage"
)

// ErrUnknownEntity is returned when a single-entity export names an entity
// that has no CSV table.
var ErrUnknownEntity = errors.New("unknown entity")

// EntityNames lists the exported CSV tables in dependency order. The same
// order is used for archive layout and for import replay.
var EntityNames = []string{
	"project", "files", "codes", "themes", "insights",
	"annotations", "media", "participants", "segments",
}

// Headers maps each entity to its CSV column set. The codes header is
// load-bearing: reimport and the companion tooling key off these names.
var Headers = map[string][]string{
	"project":      {"id", "name", "description", "created_at"},
	"files":        {"id", "filename", "content", "created_at"},
	"codes":        {"id", "file_id", "code_name", "text", "start_offset", "end_offset", "position_x", "position_y", "size_width", "size_height", "created_at"},
	"themes":       {"id", "name", "code_ids", "position_x", "position_y", "size_width", "size_height", "style_color", "created_at"},
	"insights":     {"id", "name", "theme_ids", "position_x", "position_y", "size_width", "size_height", "style_color", "expanded", "created_at"},
	"annotations":  {"id", "content", "position_x", "position_y", "size_width", "size_height", "style_color", "created_at"},
	"media":        {"id", "original_filename", "mime_type", "storage_path", "size_bytes", "duration_sec", "status", "error_message", "created_at"},
	"participants": {"id", "media_file_id", "name", "canonical_key", "color"},
	"segments":     {"id", "media_file_id", "participant_id", "participant_name", "idx", "start_ms", "end_ms", "text"},
}

// Service is the export engine.
type Service struct {
	projects     *storage.ProjectRepo
	files        *storage.FileRepo
	codes        *storage.CodeRepo
	themes       *storage.ThemeRepo
	insights     *storage.InsightRepo
	annotations  *storage.AnnotationRepo
	media        *storage.MediaRepo
	participants *storage.ParticipantRepo
	segments     *storage.SegmentRepo
}

// NewService creates an export engine over the given database.
func NewService(db *sql.DB) *Service {
	return &Service{
		projects:     storage.NewProjectRepo(db),
		files:        storage.NewFileRepo(db),
		codes:        storage.NewCodeRepo(db),
		themes:       storage.NewThemeRepo(db),
		insights:     storage.NewInsightRepo(db),
		annotations:  storage.NewAnnotationRepo(db),
		media:        storage.NewMediaRepo(db),
		participants: storage.NewParticipantRepo(db),
		segments:     storage.NewSegmentRepo(db),
	}
}

// EntityCSV renders one entity's CSV table for a project. The result has
// no BOM; callers serving it as a file prepend codec.BOM. Returns
// storage.ErrNotFound when the project does not exist and
// ErrUnknownEntity for an unrecognized entity name.
func (s *Service) EntityCSV(ctx context.Context, projectID, entity string) (string, error) {
	headers, ok := Headers[entity]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return "", err
	}
	rows, err := s.entityRows(ctx, project, entity)
	if err != nil {
		return "", err
	}
	return codec.RowsToCSV(headers, rows), nil
}

// WriteArchive streams the full project archive (every entity CSV, one VTT
// transcript per media file with segments, and a README) as a zip to w.
// Returns storage.ErrNotFound before writing any bytes when the project
// does not exist.
func (s *Service) WriteArchive(ctx context.Context, projectID string, w io.Writer) error {
	logger := contextutil.LoggerFromContext(ctx)

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	for _, entity := range EntityNames {
		rows, err := s.entityRows(ctx, project, entity)
		if err != nil {
			return fmt.Errorf("failed to load %s rows: %w", entity, err)
		}
		// Header-only CSV for empty entities; the file is never absent.
		content := codec.BOM + codec.RowsToCSV(Headers[entity], rows)
		if err := writeArchiveFile(zw, path.Join("data", entity+".csv"), content); err != nil {
			return err
		}
	}

	if err := s.writeTranscripts(ctx, zw, project); err != nil {
		return err
	}

	if err := writeArchiveFile(zw, "README.txt", readmeText(project)); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}

	logger.InfoContext(ctx, "project exported", "project_id", project.ID, "name", project.Name)
	return nil
}

func (s *Service) writeTranscripts(ctx context.Context, zw *zip.Writer, project *storage.Project) error {
	media, err := s.media.ListByProject(ctx, project.ID)
	if err != nil {
		return err
	}

	usedStems := make(map[string]int)
	for _, m := range media {
		segments, err := s.segments.ListByMedia(ctx, m.ID)
		if err != nil {
			return err
		}
		if len(segments) == 0 {
			continue
		}
		participants, err := s.participants.ListByMedia(ctx, m.ID)
		if err != nil {
			return err
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

		stem := filenameStem(m.OriginalFilename)
		usedStems[stem]++
		if n := usedStems[stem]; n > 1 {
			stem = fmt.Sprintf("%s (%d)", stem, n)
		}
		vtt := codec.ComposeVTT(vttSegments, names, true)
		if err := writeArchiveFile(zw, path.Join("transcripts", stem+".vtt"), vtt); err != nil {
			return err
		}
	}
	return nil
}

// entityRows loads one entity's rows scoped to the project and renders
// them as flat column maps matching Headers[entity].
func (s *Service) entityRows(ctx context.Context, project *storage.Project, entity string) ([]map[string]any, error) {
	switch entity {
	case "project":
		return []map[string]any{{
			"id":          project.ID,
			"name":        project.Name,
			"description": project.Description,
			"created_at":  formatTime(project.CreatedAt),
		}}, nil

	case "files":
		files, err := s.files.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(files))
		for _, f := range files {
			rows = append(rows, map[string]any{
				"id":         f.ID,
				"filename":   f.Filename,
				"content":    f.Content,
				"created_at": formatTime(f.CreatedAt),
			})
		}
		return rows, nil

	case "codes":
		codes, err := s.codes.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(codes))
		for _, c := range codes {
			rows = append(rows, codec.Flatten(map[string]any{
				"id":           c.ID,
				"file_id":      c.FileID,
				"code_name":    c.CodeName,
				"text":         c.Text,
				"start_offset": c.StartOffset,
				"end_offset":   c.EndOffset,
				"position":     map[string]any{"x": c.Position.X, "y": c.Position.Y},
				"size":         map[string]any{"width": c.Size.Width, "height": c.Size.Height},
				"created_at":   formatTime(c.CreatedAt),
			}, ""))
		}
		return rows, nil

	case "themes":
		themes, err := s.themes.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(themes))
		for _, t := range themes {
			rows = append(rows, codec.Flatten(map[string]any{
				"id":         t.ID,
				"name":       t.Name,
				"code_ids":   codec.JoinIDs(t.CodeIDs),
				"position":   map[string]any{"x": t.Position.X, "y": t.Position.Y},
				"size":       map[string]any{"width": t.Size.Width, "height": t.Size.Height},
				"style":      map[string]any{"color": t.Style.Color},
				"created_at": formatTime(t.CreatedAt),
			}, ""))
		}
		return rows, nil

	case "insights":
		insights, err := s.insights.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(insights))
		for _, in := range insights {
			rows = append(rows, codec.Flatten(map[string]any{
				"id":         in.ID,
				"name":       in.Name,
				"theme_ids":  codec.JoinIDs(in.ThemeIDs),
				"position":   map[string]any{"x": in.Position.X, "y": in.Position.Y},
				"size":       map[string]any{"width": in.Size.Width, "height": in.Size.Height},
				"style":      map[string]any{"color": in.Style.Color},
				"expanded":   in.Expanded,
				"created_at": formatTime(in.CreatedAt),
			}, ""))
		}
		return rows, nil

	case "annotations":
		annotations, err := s.annotations.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(annotations))
		for _, a := range annotations {
			rows = append(rows, codec.Flatten(map[string]any{
				"id":         a.ID,
				"content":    a.Content,
				"position":   map[string]any{"x": a.Position.X, "y": a.Position.Y},
				"size":       map[string]any{"width": a.Size.Width, "height": a.Size.Height},
				"style":      map[string]any{"color": a.Style.Color},
				"created_at": formatTime(a.CreatedAt),
			}, ""))
		}
		return rows, nil

	case "media":
		media, err := s.media.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(media))
		for _, m := range media {
			rows = append(rows, map[string]any{
				"id":                m.ID,
				"original_filename": m.OriginalFilename,
				"mime_type":         m.MimeType,
				"storage_path":      m.StoragePath,
				"size_bytes":        m.SizeBytes,
				"duration_sec":      m.DurationSec,
				"status":            m.Status,
				"error_message":     m.ErrorMessage,
				"created_at":        formatTime(m.CreatedAt),
			})
		}
		return rows, nil

	case "participants":
		participants, err := s.participants.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(participants))
		for _, p := range participants {
			rows = append(rows, map[string]any{
				"id":            p.ID,
				"media_file_id": p.MediaFileID,
				"name":          p.Name,
				"canonical_key": p.CanonicalKey,
				"color":         p.Color,
			})
		}
		return rows, nil

	case "segments":
		segments, err := s.segments.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]any, 0, len(segments))
		for _, seg := range segments {
			var participantID any
			if seg.ParticipantID != nil {
				participantID = *seg.ParticipantID
			}
			rows = append(rows, map[string]any{
				"id":               seg.ID,
				"media_file_id":    seg.MediaFileID,
				"participant_id":   participantID,
				"participant_name": seg.Speaker,
				"idx":              seg.Idx,
				"start_ms":         seg.StartMs,
				"end_ms":           seg.EndMs,
				"text":             seg.Text,
			})
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
}

func writeArchiveFile(zw *zip.Writer, name, content string) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", name, err)
	}
	if _, err := io.WriteString(f, content); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", name, err)
	}
	return nil
}

func filenameStem(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		return "transcript"
	}
	return base
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func readmeText(project *storage.Project) string {
	var b strings.Builder
	b.WriteString("Project export: " + project.Name + "\n\n")
	b.WriteString("This archive contains a complete snapshot of the project.\n\n")
	b.WriteString("data/\n")
	b.WriteString("  One CSV file per entity type (project, files, codes, themes,\n")
	b.WriteString("  insights, annotations, media, participants, segments). Files are\n")
	b.WriteString("  UTF-8 with BOM; a file with only a header row means the project\n")
	b.WriteString("  has no entities of that type.\n\n")
	b.WriteString("transcripts/\n")
	b.WriteString("  One WebVTT transcript per media file that has transcript\n")
	b.WriteString("  segments. These are a convenience rendering; they are ignored\n")
	b.WriteString("  when the archive is reimported.\n\n")
	b.WriteString("Reimporting: upload this archive unmodified to the import endpoint.\n")
	b.WriteString("A new project is created with fresh ids; every cross-entity\n")
	b.WriteString("reference is rewritten to the new ids, and a name collision with an\n")
	b.WriteString("existing project is resolved by suffixing \" (2)\", \" (3)\", and so on.\n")
	return b.String()
}
