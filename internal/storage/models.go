package storage

import "time"

// Position is a canvas coordinate pair.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a canvas bounding-box size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Style holds the visual styling of a canvas element.
type Style struct {
	Color string `json:"color"`
}

// Project is the top-level container for all other entities.
type Project struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	ImportedAt  *time.Time // set only on projects created by the import engine
}

// File is a text document belonging to a project.
type File struct {
	ID        string
	ProjectID string
	Filename  string
	Content   string
	CreatedAt time.Time
}

// Code is a user-tagged span of text within a file, placed on the canvas.
type Code struct {
	ID          string
	FileID      string
	CodeName    string
	Text        string
	StartOffset int
	EndOffset   int
	Position    Position
	Size        Size
	CreatedAt   time.Time
}

// Theme groups codes. CodeIDs are soft references: entries may point at
// codes that no longer exist and readers must tolerate the miss.
type Theme struct {
	ID        string
	ProjectID string
	Name      string
	CodeIDs   []string
	Position  Position
	Size      Size
	Style     Style
	CreatedAt time.Time
}

// Insight groups themes. ThemeIDs are soft references like Theme.CodeIDs.
type Insight struct {
	ID        string
	ProjectID string
	Name      string
	ThemeIDs  []string
	Position  Position
	Size      Size
	Style     Style
	Expanded  bool
	CreatedAt time.Time
}

// Annotation is a free-floating note on the project canvas.
type Annotation struct {
	ID        string
	ProjectID string
	Content   string
	Position  Position
	Size      Size
	Style     Style
	CreatedAt time.Time
}

// MediaFile is an uploaded audio/video file. Status reflects the
// transcription job lifecycle (uploaded, processing, completed, failed);
// the job queue itself is owned by the worker subsystem.
type MediaFile struct {
	ID               string
	ProjectID        string
	OriginalFilename string
	MimeType         string
	StoragePath      string
	SizeBytes        int64
	DurationSec      float64
	Status           string
	ErrorMessage     string
	CreatedAt        time.Time
}

// Participant is a named speaker within a media file's transcript.
type Participant struct {
	ID           string
	MediaFileID  string
	Name         string
	CanonicalKey string
	Color        string
}

// TranscriptSegment is one timed utterance of a media file's transcript.
// ParticipantID is nullable: a segment may have no attributed speaker.
type TranscriptSegment struct {
	ID            string
	MediaFileID   string
	ParticipantID *string
	Idx           int
	StartMs       int64
	EndMs         int64
	Text          string
}

// SegmentWithSpeaker is a transcript segment joined with its participant's
// name, as consumed by the export and finalize engines. Speaker is empty
// when the segment has no participant.
type SegmentWithSpeaker struct {
	TranscriptSegment
	Speaker string
}

// FinalizeMapping records the one-time conversion of a media file's
// transcript into a document. The primary key on MediaFileID is what
// enforces finalize-exactly-once.
type FinalizeMapping struct {
	MediaFileID          string
	FileID               string
	FinalizedAt          time.Time
	OriginalSegmentCount int
}
