package importer

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"qualweave/internal/codec"
	"qualweave/internal/contextutil"
	"qualweave/internal/storage"
)

// Summary reports the outcome of a successful import.
type Summary struct {
	ProjectID   string         `json:"projectId"`
	ProjectName string         `json:"projectName"`
	Counts      map[string]int `json:"counts"`
}

// Service is the import engine.
type Service struct {
	db *sql.DB
}

// NewService creates an import engine over the given database.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Import replays a bundle into a fresh project inside one transaction.
// On any failure the transaction is rolled back; no partial project is
// ever left behind. Returns *MissingTablesError when the required table
// set is incomplete.
func (s *Service) Import(ctx context.Context, bundle *Bundle) (*Summary, error) {
	if result := Validate(bundle); !result.Valid {
		return nil, &MissingTablesError{Missing: result.MissingFiles}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	summary, err := importAll(ctx, tx, bundle)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "project imported",
		"project_id", summary.ProjectID, "name", summary.ProjectName)
	return summary, nil
}

// importAll walks the bundle in dependency order:
// project → files → codes → themes → insights → annotations →
// media → participants → segments. Each step records old→new id mappings
// for the steps after it.
func importAll(ctx context.Context, tx *sql.Tx, bundle *Bundle) (*Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	projects := storage.NewProjectRepo(tx)
	files := storage.NewFileRepo(tx)
	codes := storage.NewCodeRepo(tx)
	themes := storage.NewThemeRepo(tx)
	insights := storage.NewInsightRepo(tx)
	annotations := storage.NewAnnotationRepo(tx)
	media := storage.NewMediaRepo(tx)
	participants := storage.NewParticipantRepo(tx)
	segments := storage.NewSegmentRepo(tx)

	projectTable := bundle.Tables["project"]
	if len(projectTable.Rows) == 0 {
		return nil, fmt.Errorf("project.csv has no data row")
	}
	projectRow := projectTable.Rows[0]

	existing, err := projects.ListNames(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	project := &storage.Project{
		Name:        UniqueProjectName(projectRow["name"], existing),
		Description: projectRow["description"],
		ImportedAt:  &now,
	}
	if err := projects.Create(ctx, project); err != nil {
		return nil, err
	}

	counts := map[string]int{}

	fileIDs := make(map[string]string)
	for _, row := range bundle.Tables["files"].Rows {
		f := &storage.File{
			ProjectID: project.ID,
			Filename:  row["filename"],
			Content:   row["content"],
		}
		if err := files.Create(ctx, f); err != nil {
			return nil, err
		}
		fileIDs[row["id"]] = f.ID
		counts["files"]++
	}

	codeIDs := make(map[string]string)
	for _, row := range bundle.Tables["codes"].Rows {
		newFileID, ok := fileIDs[row["file_id"]]
		if !ok {
			logger.DebugContext(ctx, "dropping code with unresolvable file reference",
				"code_id", row["id"], "file_id", row["file_id"])
			continue
		}
		startOffset, err := parseIntField(row, "start_offset")
		if err != nil {
			return nil, err
		}
		endOffset, err := parseIntField(row, "end_offset")
		if err != nil {
			return nil, err
		}
		position, size, _, err := parseCanvasFields(row)
		if err != nil {
			return nil, err
		}
		c := &storage.Code{
			FileID:      newFileID,
			CodeName:    row["code_name"],
			Text:        row["text"],
			StartOffset: startOffset,
			EndOffset:   endOffset,
			Position:    position,
			Size:        size,
		}
		if err := codes.Create(ctx, c); err != nil {
			return nil, err
		}
		codeIDs[row["id"]] = c.ID
		counts["codes"]++
	}

	themeIDs := make(map[string]string)
	for _, row := range bundle.Tables["themes"].Rows {
		position, size, style, err := parseCanvasFields(row)
		if err != nil {
			return nil, err
		}
		t := &storage.Theme{
			ProjectID: project.ID,
			Name:      row["name"],
			CodeIDs:   remapIDs(ctx, codec.SplitIDs(row["code_ids"]), codeIDs, "code"),
			Position:  position,
			Size:      size,
			Style:     style,
		}
		if err := themes.Create(ctx, t); err != nil {
			return nil, err
		}
		themeIDs[row["id"]] = t.ID
		counts["themes"]++
	}

	for _, row := range bundle.Tables["insights"].Rows {
		position, size, style, err := parseCanvasFields(row)
		if err != nil {
			return nil, err
		}
		in := &storage.Insight{
			ProjectID: project.ID,
			Name:      row["name"],
			ThemeIDs:  remapIDs(ctx, codec.SplitIDs(row["theme_ids"]), themeIDs, "theme"),
			Position:  position,
			Size:      size,
			Style:     style,
			Expanded:  row["expanded"] == "true",
		}
		if err := insights.Create(ctx, in); err != nil {
			return nil, err
		}
		counts["insights"]++
	}

	for _, row := range bundle.Tables["annotations"].Rows {
		position, size, style, err := parseCanvasFields(row)
		if err != nil {
			return nil, err
		}
		a := &storage.Annotation{
			ProjectID: project.ID,
			Content:   row["content"],
			Position:  position,
			Size:      size,
			Style:     style,
		}
		if err := annotations.Create(ctx, a); err != nil {
			return nil, err
		}
		counts["annotations"]++
	}

	mediaIDs := make(map[string]string)
	for _, row := range bundle.Tables["media"].Rows {
		sizeBytes, err := parseInt64Field(row, "size_bytes")
		if err != nil {
			return nil, err
		}
		durationSec, err := parseFloatField(row, "duration_sec")
		if err != nil {
			return nil, err
		}
		m := &storage.MediaFile{
			ProjectID:        project.ID,
			OriginalFilename: row["original_filename"],
			MimeType:         row["mime_type"],
			StoragePath:      row["storage_path"],
			SizeBytes:        sizeBytes,
			DurationSec:      durationSec,
			Status:           row["status"],
			ErrorMessage:     row["error_message"],
		}
		if err := media.Create(ctx, m); err != nil {
			return nil, err
		}
		mediaIDs[row["id"]] = m.ID
		counts["media"]++
	}

	participantIDs := make(map[string]string)
	for _, row := range bundle.Tables["participants"].Rows {
		newMediaID, ok := mediaIDs[row["media_file_id"]]
		if !ok {
			logger.DebugContext(ctx, "dropping participant with unresolvable media reference",
				"participant_id", row["id"], "media_file_id", row["media_file_id"])
			continue
		}
		p := &storage.Participant{
			MediaFileID:  newMediaID,
			Name:         row["name"],
			CanonicalKey: row["canonical_key"],
			Color:        row["color"],
		}
		if err := participants.Create(ctx, p); err != nil {
			return nil, err
		}
		participantIDs[row["id"]] = p.ID
		counts["participants"]++
	}

	for _, row := range bundle.Tables["segments"].Rows {
		newMediaID, ok := mediaIDs[row["media_file_id"]]
		if !ok {
			logger.DebugContext(ctx, "dropping segment with unresolvable media reference",
				"segment_id", row["id"], "media_file_id", row["media_file_id"])
			continue
		}
		idx, err := parseIntField(row, "idx")
		if err != nil {
			return nil, err
		}
		startMs, err := parseInt64Field(row, "start_ms")
		if err != nil {
			return nil, err
		}
		endMs, err := parseInt64Field(row, "end_ms")
		if err != nil {
			return nil, err
		}
		seg := &storage.TranscriptSegment{
			MediaFileID: newMediaID,
			Idx:         idx,
			StartMs:     startMs,
			EndMs:       endMs,
			Text:        row["text"],
		}
		// Nullable: an unresolvable participant leaves the segment
		// unattributed rather than dropping it.
		if newParticipantID, ok := participantIDs[row["participant_id"]]; ok {
			seg.ParticipantID = &newParticipantID
		}
		if err := segments.Create(ctx, seg); err != nil {
			return nil, err
		}
		counts["segments"]++
	}

	return &Summary{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Counts:      counts,
	}, nil
}

// remapIDs rewrites a soft-reference id list through the old→new map.
// Unresolvable entries are dropped; the relative order of the resolvable
// ones is preserved.
func remapIDs(ctx context.Context, oldIDs []string, idMap map[string]string, kind string) []string {
	newIDs := make([]string, 0, len(oldIDs))
	for _, oldID := range oldIDs {
		newID, ok := idMap[oldID]
		if !ok {
			contextutil.LoggerFromContext(ctx).DebugContext(ctx, "dropping dangling reference",
				"kind", kind, "id", oldID)
			continue
		}
		newIDs = append(newIDs, newID)
	}
	return newIDs
}

// parseCanvasFields unflattens a row's position_*/size_*/style_* columns.
func parseCanvasFields(row map[string]string) (storage.Position, storage.Size, storage.Style, error) {
	nested := codec.Unflatten(row)

	position := storage.Position{}
	size := storage.Size{}
	style := storage.Style{}

	if obj, ok := nested["position"].(map[string]any); ok {
		var err error
		if position.X, err = parseFloatLeaf(obj, "x"); err != nil {
			return position, size, style, err
		}
		if position.Y, err = parseFloatLeaf(obj, "y"); err != nil {
			return position, size, style, err
		}
	}
	if obj, ok := nested["size"].(map[string]any); ok {
		var err error
		if size.Width, err = parseFloatLeaf(obj, "width"); err != nil {
			return position, size, style, err
		}
		if size.Height, err = parseFloatLeaf(obj, "height"); err != nil {
			return position, size, style, err
		}
	}
	if obj, ok := nested["style"].(map[string]any); ok {
		if color, ok := obj["color"].(string); ok {
			style.Color = color
		}
	}
	return position, size, style, nil
}

func parseFloatLeaf(obj map[string]any, key string) (float64, error) {
	s, _ := obj[key].(string)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable numeric field %s: %q", key, s)
	}
	return v, nil
}

func parseIntField(row map[string]string, key string) (int, error) {
	s := row[key]
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unparsable numeric field %s: %q", key, s)
	}
	return v, nil
}

func parseInt64Field(row map[string]string, key string) (int64, error) {
	s := row[key]
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable numeric field %s: %q", key, s)
	}
	return v, nil
}

func parseFloatField(row map[string]string, key string) (float64, error) {
	s := row[key]
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparsable numeric field %s: %q", key, s)
	}
	return v, nil
}
