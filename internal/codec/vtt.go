package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// VTTSegment is the input to ComposeVTT: one timed utterance with an
// optional participant reference.
type VTTSegment struct {
	Idx           int
	StartMs       int64
	EndMs         int64
	Text          string
	ParticipantID string // empty when the segment has no speaker
}

// VTTCue is one parsed WebVTT cue.
type VTTCue struct {
	StartMs int64
	EndMs   int64
	Speaker string // empty when the cue body carries no voice tag
	Text    string
}

// FormatTimestamp renders milliseconds as a zero-padded WebVTT timestamp
// "HH:MM:SS.mmm". Integer arithmetic only; no float rounding.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000
	frac := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, frac)
}

// ParseTimestamp parses "HH:MM:SS.mmm" (or "MM:SS.mmm") back to
// milliseconds.
func ParseTimestamp(ts string) (int64, error) {
	main, fracStr, ok := strings.Cut(ts, ".")
	if !ok || len(fracStr) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}
	frac, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}
	parts := strings.Split(main, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}
	var ms int64
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", ts)
		}
		ms = ms*60 + n
	}
	return ms*1000 + frac, nil
}

// SpeakerName resolves a segment's display name against the participant
// set: "Speaker" when the segment has no participant, "Unknown Speaker"
// when it references an id absent from the set.
func SpeakerName(participantID string, participants map[string]string) string {
	if participantID == "" {
		return "Speaker"
	}
	name, ok := participants[participantID]
	if !ok || name == "" {
		return "Unknown Speaker"
	}
	return name
}

// ComposeVTT emits a WebVTT document for the given segments, which must
// already be in idx order. participants maps participant id to display
// name. When tagged is true each cue body is wrapped in a voice tag
// (<v Name>text</v>); otherwise the body is "Name: text".
func ComposeVTT(segments []VTTSegment, participants map[string]string, tagged bool) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")

	for i, seg := range segments {
		name := SpeakerName(seg.ParticipantID, participants)
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(seg.StartMs))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(seg.EndMs))
		b.WriteByte('\n')
		if tagged {
			b.WriteString("<v " + name + ">" + seg.Text + "</v>")
		} else {
			b.WriteString(name + ": " + seg.Text)
		}
		b.WriteString("\n\n")
	}

	return b.String()
}

// ParseVTT parses a WebVTT document produced by ComposeVTT back into cues.
// Cue identifier lines are optional; voice tags are unwrapped into the
// Speaker field.
func ParseVTT(text string) ([]VTTCue, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) == 0 || !strings.HasPrefix(strings.TrimPrefix(lines[0], BOM), "WEBVTT") {
		return nil, fmt.Errorf("missing WEBVTT header")
	}

	var cues []VTTCue
	i := 1
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		// Optional cue identifier line before the timing line.
		if !strings.Contains(line, "-->") {
			i++
			if i >= len(lines) {
				break
			}
			line = strings.TrimSpace(lines[i])
		}
		startRaw, endRaw, ok := strings.Cut(line, "-->")
		if !ok {
			return nil, fmt.Errorf("expected timing line, got %q", line)
		}
		start, err := ParseTimestamp(strings.TrimSpace(startRaw))
		if err != nil {
			return nil, err
		}
		end, err := ParseTimestamp(strings.TrimSpace(endRaw))
		if err != nil {
			return nil, err
		}
		i++
		var body []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			body = append(body, lines[i])
			i++
		}
		speaker, text := unwrapVoiceTag(strings.Join(body, "\n"))
		cues = append(cues, VTTCue{StartMs: start, EndMs: end, Speaker: speaker, Text: text})
	}

	return cues, nil
}

func unwrapVoiceTag(body string) (speaker, text string) {
	if !strings.HasPrefix(body, "<v ") {
		return "", body
	}
	rest := body[len("<v "):]
	name, content, ok := strings.Cut(rest, ">")
	if !ok {
		return "", body
	}
	return name, strings.TrimSuffix(content, "</v>")
}
