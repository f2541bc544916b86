package formatter

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/vidscribe/vidscribe/internal/youtube"
)

type jsonVideoInfo struct {
	Title             string  `json:"title"`
	Channel           string  `json:"channel"`
	UploadDate        string  `json:"upload_date"`
	Duration          float64 `json:"duration"`
	DurationFormatted string  `json:"duration_formatted"`
	ViewCount         int64   `json:"view_count"`
}

type jsonEntry struct {
	Timestamp    string  `json:"timestamp"`
	StartSeconds float64 `json:"start_seconds"`
	Duration     float64 `json:"duration"`
	Text         string  `json:"text"`
}

type jsonMetaBlock struct {
	TotalEntries int    `json:"total_entries"`
	GeneratedAt  string `json:"generated_at"`
}

type jsonDoc struct {
	VideoInfo   jsonVideoInfo `json:"video_info"`
	Description string        `json:"description"`
	Transcript  []jsonEntry   `json:"transcript"`
	Metadata    jsonMetaBlock `json:"metadata"`
	AISummary   string        `json:"ai_summary,omitempty"`
	KeyTopics   []string      `json:"key_topics,omitempty"`
	Translation string        `json:"translation,omitempty"`
}

// jsonFormatter emits the stable machine-readable shape.
type jsonFormatter struct{}

func (jsonFormatter) Extension() string { return "json" }
func (jsonFormatter) Name() string      { return "json" }

func (jsonFormatter) Format(doc *Document) ([]byte, error) {
	// Empty transcripts serialize as [], not null.
	entries := make([]jsonEntry, 0, len(doc.Transcript))
	for _, e := range doc.Transcript {
		entries = append(entries, jsonEntry{
			Timestamp:    e.Timestamp,
			StartSeconds: e.Start,
			Duration:     e.Duration,
			Text:         strings.TrimSpace(e.Text),
		})
	}

	out := jsonDoc{
		VideoInfo: jsonVideoInfo{
			Title:             doc.Meta.Title,
			Channel:           doc.Meta.Channel,
			UploadDate:        doc.Meta.UploadDate,
			Duration:          doc.Meta.Duration,
			DurationFormatted: youtube.FormatTimestamp(doc.Meta.Duration),
			ViewCount:         doc.Meta.ViewCount,
		},
		Description: doc.Meta.Description,
		Transcript:  entries,
		Metadata: jsonMetaBlock{
			TotalEntries: len(entries),
			GeneratedAt:  doc.generatedAt(),
		},
		AISummary:   doc.Summary,
		KeyTopics:   doc.Topics,
		Translation: doc.Translation,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
