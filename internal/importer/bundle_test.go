package importer

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"qualweave/internal/codec"
)

func zipArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestReadArchive(t *testing.T) {
	data := zipArchive(t, map[string]string{
		"data/project.csv":          codec.BOM + "id,name,description\np1,Study,notes\n",
		"data/files.csv":            "id,filename,content\nf1,a.txt,\"hello, world\"\n",
		"transcripts/interview.vtt": "WEBVTT\n",
		"README.txt":                "ignored",
		"data/notes.txt":            "not a csv, skipped",
	})

	bundle, err := ReadArchive(data)
	if err != nil {
		t.Fatalf("ReadArchive() error = %v", err)
	}
	if len(bundle.Tables) != 2 {
		t.Fatalf("parsed %d tables, want 2 (only data/*.csv)", len(bundle.Tables))
	}

	project := bundle.Tables["project"]
	if len(project.Rows) != 1 || project.Rows[0]["name"] != "Study" {
		t.Errorf("project rows = %+v", project.Rows)
	}
	files := bundle.Tables["files"]
	if files.Rows[0]["content"] != "hello, world" {
		t.Errorf("files content = %q, want quoted field unescaped", files.Rows[0]["content"])
	}
}

func TestReadArchive_ShortRowsPadded(t *testing.T) {
	data := zipArchive(t, map[string]string{
		"data/project.csv": "id,name,description\np1,Study\n",
	})
	bundle, err := ReadArchive(data)
	if err != nil {
		t.Fatalf("ReadArchive() error = %v", err)
	}
	if got := bundle.Tables["project"].Rows[0]["description"]; got != "" {
		t.Errorf("description = %q, want empty pad", got)
	}
}

func TestReadArchive_NotAZip(t *testing.T) {
	_, err := ReadArchive([]byte("this is not a zip file"))
	if !errors.Is(err, ErrMalformedArchive) {
		t.Errorf("ReadArchive() error = %v, want ErrMalformedArchive", err)
	}
}

func TestReadArchive_BadCSV(t *testing.T) {
	data := zipArchive(t, map[string]string{
		"data/codes.csv": "id,name\n\"unterminated\n",
	})
	_, err := ReadArchive(data)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("ReadArchive() error = %v, want *ParseError", err)
	}
	if parseErr.Entry != "data/codes.csv" {
		t.Errorf("ParseError.Entry = %q, want data/codes.csv", parseErr.Entry)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		tables      []string
		wantValid   bool
		wantMissing []string
	}{
		{
			name:      "all required present",
			tables:    []string{"project", "files", "codes", "themes", "insights"},
			wantValid: true,
		},
		{
			name:        "themes and insights missing",
			tables:      []string{"project", "files", "codes"},
			wantValid:   false,
			wantMissing: []string{"themes", "insights"},
		},
		{
			name:        "empty archive",
			tables:      nil,
			wantValid:   false,
			wantMissing: []string{"project", "files", "codes", "themes", "insights"},
		},
		{
			name:      "optional tables do not matter",
			tables:    []string{"project", "files", "codes", "themes", "insights", "media", "segments"},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundle := &Bundle{Tables: make(map[string]Table)}
			for _, name := range tt.tables {
				bundle.Tables[name] = Table{}
			}
			result := Validate(bundle)
			if result.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", result.Valid, tt.wantValid)
			}
			if len(result.MissingFiles) != len(tt.wantMissing) {
				t.Fatalf("MissingFiles = %v, want %v", result.MissingFiles, tt.wantMissing)
			}
			for i := range tt.wantMissing {
				if result.MissingFiles[i] != tt.wantMissing[i] {
					t.Errorf("MissingFiles = %v, want %v", result.MissingFiles, tt.wantMissing)
				}
			}
		})
	}
}
