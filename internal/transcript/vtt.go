// Package transcript retrieves timestamped subtitle tracks via yt-dlp
// and parses WebVTT caption files into timed entries. Auto-generated
// captions carry significant bloat (rolling repeats, inline tags,
// position metadata) that the parser strips.
package transcript

import (
	"regexp"
	"strings"

	"github.com/vidscribe/vidscribe/internal/youtube"
)

// Entry is one timed subtitle cue.
type Entry struct {
	Start     float64 `json:"start"`     // seconds
	Duration  float64 `json:"duration"`  // seconds
	Text      string  `json:"text"`
	Timestamp string  `json:"timestamp"` // HH:MM:SS / MM:SS
}

// vttHeaderRe matches the WEBVTT file header and optional metadata lines.
var vttHeaderRe = regexp.MustCompile(`^WEBVTT\b.*$`)

// timingLineRe matches VTT timing cues like "00:00:01.234 --> 00:00:03.456"
// with optional position/alignment metadata after the timestamps.
var timingLineRe = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}\.\d{3}`)

// tagRe matches inline markup commonly found in VTT files (<c>, <i>,
// <font>, and timestamp tags like <00:00:01.500>).
var tagRe = regexp.MustCompile(`<[^>]+>`)

// cueIDRe matches standalone numeric cue identifiers that appear on
// their own line before a timing cue.
var cueIDRe = regexp.MustCompile(`^\d+$`)

// metadataLineRe matches VTT metadata lines like "Kind:" and "Language:".
var metadataLineRe = regexp.MustCompile(`^(Kind|Language|NOTE|STYLE|REGION)\b`)

// ParseVTT parses raw WebVTT content into timed entries. Inline tags
// are stripped and rolling auto-caption repeats (the same payload text
// re-appearing in consecutive overlapping cues) are deduplicated.
func ParseVTT(raw string) []Entry {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var entries []Entry
	var cur *Entry
	var curLines []string
	prevText := ""

	flush := func() {
		if cur == nil {
			return
		}
		text := strings.TrimSpace(strings.Join(curLines, " "))
		if text != "" && text != prevText {
			cur.Text = text
			cur.Timestamp = youtube.FormatTimestamp(cur.Start)
			entries = append(entries, *cur)
			prevText = text
		}
		cur = nil
		curLines = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")

		if timingLineRe.MatchString(line) {
			flush()
			times := strings.SplitN(line, "-->", 2)
			start := parseTimestamp(strings.TrimSpace(times[0]))
			end := parseTimestamp(strings.TrimSpace(strings.Fields(times[1])[0]))
			cur = &Entry{Start: start, Duration: end - start}
			continue
		}

		// Skip headers, metadata, and standalone cue IDs.
		if vttHeaderRe.MatchString(line) || metadataLineRe.MatchString(line) {
			continue
		}
		if cueIDRe.MatchString(strings.TrimSpace(line)) {
			continue
		}

		if cur == nil {
			continue
		}

		line = strings.TrimSpace(tagRe.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}

		// Rolling captions repeat the previous cue's payload as their
		// first line. Drop payload lines that match the previous text.
		if line == prevText {
			continue
		}
		curLines = append(curLines, line)
	}
	flush()

	return entries
}

// JoinText flattens entries into one whitespace-joined string, the
// shape LLM prompts expect.
func JoinText(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if t := strings.TrimSpace(e.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// paragraphGap is the cue-timing silence that starts a new paragraph.
const paragraphGap = 2.0 // seconds

// JoinParagraphs flattens entries into paragraphs, breaking where the
// gap between consecutive cues exceeds two seconds. Long transcripts
// read far better this way, and paragraph bounds give the summarizer
// natural chunk seams.
func JoinParagraphs(entries []Entry) string {
	var paragraphs []string
	var cur []Entry
	prevEnd := -1.0

	flush := func() {
		if t := JoinText(cur); t != "" {
			paragraphs = append(paragraphs, t)
		}
		cur = nil
	}

	for _, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		if prevEnd >= 0 && e.Start-prevEnd > paragraphGap {
			flush()
		}
		cur = append(cur, e)
		prevEnd = e.Start + e.Duration
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}

// parseTimestamp parses a VTT timestamp "HH:MM:SS.mmm" into seconds.
func parseTimestamp(ts string) float64 {
	if len(ts) < 12 {
		return 0
	}

	h := atoi(ts[0:2])
	m := atoi(ts[3:5])
	s := atoi(ts[6:8])
	ms := atoi(ts[9:12])

	return float64((h*60+m)*60+s) + float64(ms)/1000
}

// atoi converts a numeric string to int without error handling
// (the regex pre-validates format).
func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
