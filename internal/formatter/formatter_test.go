package formatter

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/vidscribe/vidscribe/internal/transcript"
	"github.com/vidscribe/vidscribe/internal/youtube"
)

func sampleDoc() *Document {
	return &Document{
		Meta: youtube.Metadata{
			VideoID:     "dQw4w9WgXcQ",
			Title:       "Test Video | Part 1",
			Channel:     "Test Channel",
			UploadDate:  "2024-03-15",
			Duration:    212,
			ViewCount:   1234567,
			Description: "A video about testing.",
		},
		Transcript: []transcript.Entry{
			{Start: 0, Duration: 2.5, Text: "hello there", Timestamp: "00:00"},
			{Start: 2.5, Duration: 3, Text: "pipe | in text", Timestamp: "00:02"},
		},
		Summary:     "1. it is a test",
		Translation: "테스트입니다",
		Topics:      []string{"testing", "videos"},
		GeneratedAt: time.Date(2024, 3, 16, 10, 30, 0, 0, time.UTC),
	}
}

func TestNew(t *testing.T) {
	for name, wantExt := range map[string]string{
		"txt": "txt", "text": "txt",
		"json":     "json",
		"xml":      "xml",
		"md":       "md",
		"markdown": "md",
		"HTML":     "html",
	} {
		f, err := New(name)
		if err != nil {
			t.Errorf("New(%q) error: %v", name, err)
			continue
		}
		if f.Extension() != wantExt {
			t.Errorf("New(%q).Extension() = %q, want %q", name, f.Extension(), wantExt)
		}
	}

	if _, err := New("pdf"); err == nil {
		t.Error("New(pdf) should fail")
	}
}

func TestTextFormat(t *testing.T) {
	f, _ := New("text")
	out, err := f.Format(sampleDoc())
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	s := string(out)

	for _, want := range []string{
		"YouTube Video Transcript",
		"Title: Test Video | Part 1",
		"Duration: 03:32",
		"Views: 1,234,567",
		"AI Summary",
		"• testing",
		"테스트입니다",
		"[00:00] hello there",
		"Total transcript entries: 2",
		"Generated on: 2024-03-16 10:30:00",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestTextFormat_NoTranscript(t *testing.T) {
	doc := sampleDoc()
	doc.Transcript = nil
	f, _ := New("text")
	out, _ := f.Format(doc)
	if !strings.Contains(string(out), "No transcript available for this video.") {
		t.Error("text output missing empty-transcript placeholder")
	}
}

func TestJSONFormat(t *testing.T) {
	f, _ := New("json")
	out, err := f.Format(sampleDoc())
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	info, ok := got["video_info"].(map[string]any)
	if !ok {
		t.Fatal("missing video_info object")
	}
	if info["duration_formatted"] != "03:32" {
		t.Errorf("duration_formatted = %v", info["duration_formatted"])
	}
	if got["ai_summary"] != "1. it is a test" {
		t.Errorf("ai_summary = %v", got["ai_summary"])
	}
	meta := got["metadata"].(map[string]any)
	if meta["total_entries"].(float64) != 2 {
		t.Errorf("total_entries = %v", meta["total_entries"])
	}
	entries := got["transcript"].([]any)
	first := entries[0].(map[string]any)
	if first["start_seconds"].(float64) != 0 || first["text"] != "hello there" {
		t.Errorf("transcript[0] = %v", first)
	}
}

func TestJSONFormat_EmptyTranscriptIsArray(t *testing.T) {
	doc := sampleDoc()
	doc.Transcript = nil
	doc.Summary, doc.Translation, doc.Topics = "", "", nil

	f, _ := New("json")
	out, _ := f.Format(doc)
	s := string(out)
	if !strings.Contains(s, `"transcript": []`) {
		t.Errorf("empty transcript should serialize as [], got:\n%s", s)
	}
	if strings.Contains(s, "ai_summary") || strings.Contains(s, "key_topics") {
		t.Error("absent AI fields should be omitted")
	}
}

func TestXMLFormat(t *testing.T) {
	f, _ := New("xml")
	out, err := f.Format(sampleDoc())
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	s := string(out)

	if !strings.HasPrefix(s, xml.Header) {
		t.Error("missing XML declaration")
	}
	for _, want := range []string{
		"<youtube_transcript>",
		"<title>Test Video | Part 1</title>",
		"<duration_formatted>03:32</duration_formatted>",
		"<topic>testing</topic>",
		"<total_entries>2</total_entries>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("xml output missing %q", want)
		}
	}

	var parsed xmlDoc
	if err := xml.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}
	if len(parsed.Transcript.Entries) != 2 {
		t.Errorf("parsed %d entries, want 2", len(parsed.Transcript.Entries))
	}
}

func TestMarkdownFormat(t *testing.T) {
	f, _ := New("markdown")
	out, err := f.Format(sampleDoc())
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	s := string(out)

	if !strings.HasPrefix(s, "# Test Video | Part 1\n") {
		t.Errorf("missing title heading:\n%s", s[:80])
	}
	if !strings.Contains(s, "| Timestamp | Text |") {
		t.Error("missing transcript table header")
	}
	// Pipes inside cell text must be escaped so the table stays intact.
	if !strings.Contains(s, `pipe \| in text`) {
		t.Error("pipe in transcript text should be escaped")
	}
	if !strings.Contains(s, "- **Views**: 1,234,567") {
		t.Error("missing grouped view count")
	}
}

func TestHTMLFormat(t *testing.T) {
	f, _ := New("html")
	out, err := f.Format(sampleDoc())
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	s := string(out)

	if !strings.HasPrefix(s, "<!DOCTYPE html>") {
		t.Error("missing doctype")
	}
	if !strings.Contains(s, "<title>Test Video | Part 1</title>") {
		t.Error("missing document title")
	}
	// The transcript table must come through as an HTML table, which
	// requires the GFM extension.
	if !strings.Contains(s, "<table>") {
		t.Error("transcript table not rendered as <table>")
	}
	if !strings.Contains(s, "<h1>Test Video | Part 1</h1>") {
		t.Error("markdown heading not rendered")
	}
}

func TestGroupDigits(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		if got := groupDigits(tt.in); got != tt.want {
			t.Errorf("groupDigits(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
