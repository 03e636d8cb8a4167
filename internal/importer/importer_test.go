package importer

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"qualweave/internal/exporter"
	"qualweave/internal/storage"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}
	return db
}

// minimalBundle carries the required tables and nothing else.
func minimalBundle(projectName string) *Bundle {
	return &Bundle{Tables: map[string]Table{
		"project":  {Rows: []map[string]string{{"id": "p1", "name": projectName, "description": "d"}}},
		"files":    {},
		"codes":    {},
		"themes":   {},
		"insights": {},
	}}
}

// Export a populated project and import the archive back; the reference
// graph must survive under entirely fresh ids.
func TestImport_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	project := &storage.Project{Name: "Round Trip", Description: "original"}
	if err := storage.NewProjectRepo(db).Create(ctx, project); err != nil {
		t.Fatalf("Create(project) error = %v", err)
	}
	file := &storage.File{ProjectID: project.ID, Filename: "interview.txt", Content: "I worry about money, a lot."}
	if err := storage.NewFileRepo(db).Create(ctx, file); err != nil {
		t.Fatalf("Create(file) error = %v", err)
	}
	code := &storage.Code{
		FileID: file.ID, CodeName: "financial anxiety", Text: "worry about money",
		StartOffset: 2, EndOffset: 19,
		Position: storage.Position{X: 10.5, Y: 20},
	}
	if err := storage.NewCodeRepo(db).Create(ctx, code); err != nil {
		t.Fatalf("Create(code) error = %v", err)
	}
	theme := &storage.Theme{
		ProjectID: project.ID, Name: "Money", CodeIDs: []string{code.ID},
		Style: storage.Style{Color: "#f59e0b"},
	}
	if err := storage.NewThemeRepo(db).Create(ctx, theme); err != nil {
		t.Fatalf("Create(theme) error = %v", err)
	}
	insight := &storage.Insight{
		ProjectID: project.ID, Name: "Financial stress dominates", ThemeIDs: []string{theme.ID},
		Expanded: true,
	}
	if err := storage.NewInsightRepo(db).Create(ctx, insight); err != nil {
		t.Fatalf("Create(insight) error = %v", err)
	}
	media := &storage.MediaFile{ProjectID: project.ID, OriginalFilename: "interview.mp3", Status: "completed"}
	if err := storage.NewMediaRepo(db).Create(ctx, media); err != nil {
		t.Fatalf("Create(media) error = %v", err)
	}
	participant := &storage.Participant{MediaFileID: media.ID, Name: "Alice", CanonicalKey: "alice"}
	if err := storage.NewParticipantRepo(db).Create(ctx, participant); err != nil {
		t.Fatalf("Create(participant) error = %v", err)
	}
	if err := storage.NewSegmentRepo(db).Create(ctx, &storage.TranscriptSegment{
		MediaFileID: media.ID, ParticipantID: &participant.ID,
		Idx: 0, StartMs: 0, EndMs: 2000, Text: "I worry about money.",
	}); err != nil {
		t.Fatalf("Create(segment) error = %v", err)
	}

	var buf bytes.Buffer
	if err := exporter.NewService(db).WriteArchive(ctx, project.ID, &buf); err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}
	bundle, err := ReadArchive(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadArchive() error = %v", err)
	}

	summary, err := NewService(db).Import(ctx, bundle)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if summary.ProjectID == project.ID {
		t.Error("Import() reused the source project id")
	}
	if summary.ProjectName != "Round Trip (2)" {
		t.Errorf("Import() project name = %q, want %q", summary.ProjectName, "Round Trip (2)")
	}
	wantCounts := map[string]int{
		"files": 1, "codes": 1, "themes": 1, "insights": 1,
		"media": 1, "participants": 1, "segments": 1,
	}
	for entity, want := range wantCounts {
		if summary.Counts[entity] != want {
			t.Errorf("Counts[%q] = %d, want %d", entity, summary.Counts[entity], want)
		}
	}

	newCodes, err := storage.NewCodeRepo(db).ListByProject(ctx, summary.ProjectID)
	if err != nil {
		t.Fatalf("ListByProject(codes) error = %v", err)
	}
	if len(newCodes) != 1 || newCodes[0].ID == code.ID {
		t.Fatalf("imported codes = %+v, want one fresh code", newCodes)
	}
	if newCodes[0].StartOffset != 2 || newCodes[0].EndOffset != 19 {
		t.Errorf("code span = [%d, %d], want [2, 19]", newCodes[0].StartOffset, newCodes[0].EndOffset)
	}
	if newCodes[0].Position.X != 10.5 {
		t.Errorf("code position x = %v, want 10.5", newCodes[0].Position.X)
	}

	newThemes, err := storage.NewThemeRepo(db).ListByProject(ctx, summary.ProjectID)
	if err != nil {
		t.Fatalf("ListByProject(themes) error = %v", err)
	}
	if len(newThemes) != 1 {
		t.Fatalf("imported themes = %d, want 1", len(newThemes))
	}
	if len(newThemes[0].CodeIDs) != 1 || newThemes[0].CodeIDs[0] != newCodes[0].ID {
		t.Errorf("theme code_ids = %v, want remapped to [%s]", newThemes[0].CodeIDs, newCodes[0].ID)
	}
	if newThemes[0].Style.Color != "#f59e0b" {
		t.Errorf("theme color = %q, want #f59e0b", newThemes[0].Style.Color)
	}

	newInsights, err := storage.NewInsightRepo(db).ListByProject(ctx, summary.ProjectID)
	if err != nil {
		t.Fatalf("ListByProject(insights) error = %v", err)
	}
	if len(newInsights) != 1 {
		t.Fatalf("imported insights = %d, want 1", len(newInsights))
	}
	if len(newInsights[0].ThemeIDs) != 1 || newInsights[0].ThemeIDs[0] != newThemes[0].ID {
		t.Errorf("insight theme_ids = %v, want remapped to [%s]", newInsights[0].ThemeIDs, newThemes[0].ID)
	}
	if !newInsights[0].Expanded {
		t.Error("insight expanded flag lost in round trip")
	}

	newSegments, err := storage.NewSegmentRepo(db).ListByProject(ctx, summary.ProjectID)
	if err != nil {
		t.Fatalf("ListByProject(segments) error = %v", err)
	}
	if len(newSegments) != 1 {
		t.Fatalf("imported segments = %d, want 1", len(newSegments))
	}
	if newSegments[0].Speaker != "Alice" {
		t.Errorf("segment speaker = %q, want Alice (participant remapped)", newSegments[0].Speaker)
	}

	newProject, err := storage.NewProjectRepo(db).GetByID(ctx, summary.ProjectID)
	if err != nil {
		t.Fatalf("GetByID(project) error = %v", err)
	}
	if newProject.ImportedAt == nil {
		t.Error("imported project has no imported_at stamp")
	}
}

// Exporting an imported copy must reproduce the original export's rows
// for every entity, column by column. Ids and timestamps are freshly
// minted on import (and the project name picks up a collision suffix), so
// those columns are excluded; everything else must survive the cycle
// byte-for-byte.
func TestImport_ReExportStability(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	project := &storage.Project{Name: "Stability", Description: "original description"}
	if err := storage.NewProjectRepo(db).Create(ctx, project); err != nil {
		t.Fatalf("Create(project) error = %v", err)
	}
	files := storage.NewFileRepo(db)
	interview := &storage.File{ProjectID: project.ID, Filename: "interview.txt", Content: "I worry, a lot.\nEvery \"single\" day."}
	memo := &storage.File{ProjectID: project.ID, Filename: "memo.md", Content: "# Memo"}
	for _, f := range []*storage.File{interview, memo} {
		if err := files.Create(ctx, f); err != nil {
			t.Fatalf("Create(file) error = %v", err)
		}
	}
	code := &storage.Code{
		FileID: interview.ID, CodeName: "anxiety", Text: "I worry",
		StartOffset: 0, EndOffset: 7,
		Position: storage.Position{X: 1.5, Y: 2}, Size: storage.Size{Width: 180, Height: 60},
	}
	if err := storage.NewCodeRepo(db).Create(ctx, code); err != nil {
		t.Fatalf("Create(code) error = %v", err)
	}
	theme := &storage.Theme{
		ProjectID: project.ID, Name: "Worry", CodeIDs: []string{code.ID},
		Position: storage.Position{X: 10, Y: 20}, Size: storage.Size{Width: 200, Height: 100},
		Style: storage.Style{Color: "#6366f1"},
	}
	if err := storage.NewThemeRepo(db).Create(ctx, theme); err != nil {
		t.Fatalf("Create(theme) error = %v", err)
	}
	insight := &storage.Insight{
		ProjectID: project.ID, Name: "Worry dominates", ThemeIDs: []string{theme.ID},
		Style: storage.Style{Color: "#f59e0b"}, Expanded: true,
	}
	if err := storage.NewInsightRepo(db).Create(ctx, insight); err != nil {
		t.Fatalf("Create(insight) error = %v", err)
	}
	annotation := &storage.Annotation{
		ProjectID: project.ID, Content: "check with, the team",
		Position: storage.Position{X: 5, Y: 6.25}, Size: storage.Size{Width: 120, Height: 40},
		Style: storage.Style{Color: "#10b981"},
	}
	if err := storage.NewAnnotationRepo(db).Create(ctx, annotation); err != nil {
		t.Fatalf("Create(annotation) error = %v", err)
	}
	media := &storage.MediaFile{
		ProjectID: project.ID, OriginalFilename: "session.mp3", MimeType: "audio/mpeg",
		StoragePath: "media/session.mp3", SizeBytes: 1048576, DurationSec: 93.5,
		Status: "completed", ErrorMessage: "",
	}
	if err := storage.NewMediaRepo(db).Create(ctx, media); err != nil {
		t.Fatalf("Create(media) error = %v", err)
	}
	participant := &storage.Participant{MediaFileID: media.ID, Name: "Alice", CanonicalKey: "alice", Color: "#ef4444"}
	if err := storage.NewParticipantRepo(db).Create(ctx, participant); err != nil {
		t.Fatalf("Create(participant) error = %v", err)
	}
	segments := storage.NewSegmentRepo(db)
	for _, seg := range []*storage.TranscriptSegment{
		{MediaFileID: media.ID, ParticipantID: &participant.ID, Idx: 0, StartMs: 0, EndMs: 2500, Text: "I worry."},
		{MediaFileID: media.ID, Idx: 1, StartMs: 2500, EndMs: 5000, Text: "Every day."},
	} {
		if err := segments.Create(ctx, seg); err != nil {
			t.Fatalf("Create(segment) error = %v", err)
		}
	}

	exports := exporter.NewService(db)
	var first bytes.Buffer
	if err := exports.WriteArchive(ctx, project.ID, &first); err != nil {
		t.Fatalf("WriteArchive() error = %v", err)
	}
	bundle, err := ReadArchive(first.Bytes())
	if err != nil {
		t.Fatalf("ReadArchive() error = %v", err)
	}
	summary, err := NewService(db).Import(ctx, bundle)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	var second bytes.Buffer
	if err := exports.WriteArchive(ctx, summary.ProjectID, &second); err != nil {
		t.Fatalf("WriteArchive(imported) error = %v", err)
	}
	reExported, err := ReadArchive(second.Bytes())
	if err != nil {
		t.Fatalf("ReadArchive(re-export) error = %v", err)
	}

	// Columns re-keyed or re-stamped by the import are skipped; the
	// project name additionally carries the collision suffix.
	skip := map[string]bool{
		"id": true, "file_id": true, "code_ids": true, "theme_ids": true,
		"media_file_id": true, "participant_id": true, "created_at": true,
	}
	for _, entity := range exporter.EntityNames {
		want := bundle.Tables[entity]
		got := reExported.Tables[entity]
		if len(got.Rows) != len(want.Rows) {
			t.Errorf("%s: re-export has %d rows, want %d", entity, len(got.Rows), len(want.Rows))
			continue
		}
		for i := range want.Rows {
			for _, column := range want.Headers {
				if skip[column] || (entity == "project" && column == "name") {
					continue
				}
				if got.Rows[i][column] != want.Rows[i][column] {
					t.Errorf("%s row %d column %s = %q, want %q",
						entity, i, column, got.Rows[i][column], want.Rows[i][column])
				}
			}
		}
	}
}

func TestImport_CollisionNaming(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	want := []string{
		"Duplicate Test Project",
		"Duplicate Test Project (2)",
		"Duplicate Test Project (3)",
	}
	for i, wantName := range want {
		summary, err := svc.Import(ctx, minimalBundle("Duplicate Test Project"))
		if err != nil {
			t.Fatalf("Import() #%d error = %v", i+1, err)
		}
		if summary.ProjectName != wantName {
			t.Errorf("Import() #%d name = %q, want %q", i+1, summary.ProjectName, wantName)
		}
	}
}

func TestImport_MissingTables(t *testing.T) {
	db := newTestDB(t)

	bundle := minimalBundle("Partial")
	delete(bundle.Tables, "themes")
	delete(bundle.Tables, "insights")

	_, err := NewService(db).Import(context.Background(), bundle)
	var missingErr *MissingTablesError
	if !errors.As(err, &missingErr) {
		t.Fatalf("Import() error = %v, want *MissingTablesError", err)
	}
	if len(missingErr.Missing) != 2 || missingErr.Missing[0] != "themes" || missingErr.Missing[1] != "insights" {
		t.Errorf("Missing = %v, want [themes insights]", missingErr.Missing)
	}
}

// A bad row anywhere in the bundle must leave the database untouched.
func TestImport_RollbackOnBadRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bundle := minimalBundle("Doomed")
	bundle.Tables["files"] = Table{Rows: []map[string]string{
		{"id": "f1", "filename": "a.txt", "content": "x"},
	}}
	bundle.Tables["codes"] = Table{Rows: []map[string]string{
		{"id": "c1", "file_id": "f1", "code_name": "bad", "start_offset": "abc", "end_offset": "5"},
	}}

	if _, err := NewService(db).Import(ctx, bundle); err == nil {
		t.Fatal("Import() succeeded with an unparsable numeric field")
	}

	projects, err := storage.NewProjectRepo(db).ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("found %d projects after failed import, want 0", len(projects))
	}
}

// Soft references to ids absent from the archive are dropped, not errors.
func TestImport_DanglingReferencesDropped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	bundle := minimalBundle("Dangles")
	bundle.Tables["themes"] = Table{Rows: []map[string]string{
		{"id": "t1", "name": "orphaned", "code_ids": "no-such-code;also-missing"},
	}}

	summary, err := NewService(db).Import(ctx, bundle)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	themes, err := storage.NewThemeRepo(db).ListByProject(ctx, summary.ProjectID)
	if err != nil {
		t.Fatalf("ListByProject() error = %v", err)
	}
	if len(themes) != 1 {
		t.Fatalf("imported themes = %d, want 1", len(themes))
	}
	if len(themes[0].CodeIDs) != 0 {
		t.Errorf("theme code_ids = %v, want all dangling references dropped", themes[0].CodeIDs)
	}
}
