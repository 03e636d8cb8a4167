// Package importer rebuilds a project from an exported archive. The whole
// entity graph is replayed in dependency order under fresh ids inside one
// transaction; every cross-entity reference is rewritten through per-type
// old-to-new id maps built along the way.
//
// Dangling soft references (a theme naming a code id that is not in the
// archive, an insight naming a missing theme id) are dropped silently,
// preserving the relative order of the resolvable entries. Whether that
// should instead be a hard validation error is an open product question;
// the drop policy matches the historical behavior.
package importer

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"qualweave/internal/codec"
)

// ErrMalformedArchive is returned when the upload is not a readable zip.
var ErrMalformedArchive = errors.New("not a readable archive")

// RequiredTables is the minimum table set an archive must carry.
// Annotations, media, participants and segments are optional.
var RequiredTables = []string{"project", "files", "codes", "themes", "insights"}

// MissingTablesError reports which required tables an archive lacks.
type MissingTablesError struct {
	Missing []string
}

func (e *MissingTablesError) Error() string {
	return "archive is missing required tables: " + strings.Join(e.Missing, ", ")
}

// ParseError reports a CSV table entry that could not be parsed. It is
// distinct from ErrMalformedArchive: the archive itself was readable.
type ParseError struct {
	Entry string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Entry, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Table is one parsed CSV table: rows keyed by header name.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Bundle is the parsed content of an uploaded archive, keyed by entity
// name ("project", "files", ...). Transcript VTTs and the README are
// ignored on import.
type Bundle struct {
	Tables map[string]Table
}

// Has reports whether the bundle contains the named table.
func (b *Bundle) Has(name string) bool {
	_, ok := b.Tables[name]
	return ok
}

// ValidationResult is the outcome of validating an archive without
// touching the database.
type ValidationResult struct {
	Valid        bool     `json:"valid"`
	MissingFiles []string `json:"missingFiles"`
}

// ReadArchive parses an uploaded zip into a Bundle. Entries outside
// data/*.csv are skipped. A payload that is not a zip at all yields
// ErrMalformedArchive; a CSV entry that cannot be parsed yields a
// descriptive error wrapping the parse failure.
func ReadArchive(data []byte) (*Bundle, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArchive, err)
	}

	bundle := &Bundle{Tables: make(map[string]Table)}
	for _, entry := range zr.File {
		name := path.Clean(entry.Name)
		dir, file := path.Split(name)
		if dir != "data/" || !strings.HasSuffix(file, ".csv") {
			continue
		}
		entity := strings.TrimSuffix(file, ".csv")

		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open archive entry %s: %w", name, err)
		}
		table, err := parseCSVTable(rc)
		rc.Close()
		if err != nil {
			return nil, &ParseError{Entry: name, Err: err}
		}
		bundle.Tables[entity] = table
	}
	return bundle, nil
}

// Validate checks the required table set. MissingFiles holds bare entity
// names ("themes", not "themes.csv").
func Validate(bundle *Bundle) ValidationResult {
	var missing []string
	for _, name := range RequiredTables {
		if !bundle.Has(name) {
			missing = append(missing, name)
		}
	}
	return ValidationResult{Valid: len(missing) == 0, MissingFiles: missing}
}

// parseCSVTable reads one CSV file into header-keyed rows. A leading UTF-8
// BOM is stripped; rows shorter than the header are padded with empties.
func parseCSVTable(r io.Reader) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, err
	}
	data = bytes.TrimPrefix(data, []byte(codec.BOM))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(records) == 0 {
		return Table{}, errors.New("missing header row")
	}

	table := Table{Headers: records[0]}
	for _, record := range records[1:] {
		row := make(map[string]string, len(table.Headers))
		for i, h := range table.Headers {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
