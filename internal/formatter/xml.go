package formatter

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/vidscribe/vidscribe/internal/youtube"
)

type xmlVideoInfo struct {
	Title             string  `xml:"title"`
	Channel           string  `xml:"channel"`
	UploadDate        string  `xml:"upload_date"`
	Duration          float64 `xml:"duration"`
	DurationFormatted string  `xml:"duration_formatted"`
	ViewCount         int64   `xml:"view_count"`
}

type xmlEntry struct {
	Timestamp    string  `xml:"timestamp"`
	StartSeconds float64 `xml:"start_seconds"`
	Duration     float64 `xml:"duration"`
	Text         string  `xml:"text"`
}

type xmlTopics struct {
	Topics []string `xml:"topic"`
}

type xmlMetaBlock struct {
	TotalEntries int    `xml:"total_entries"`
	GeneratedAt  string `xml:"generated_at"`
}

type xmlDoc struct {
	XMLName     xml.Name     `xml:"youtube_transcript"`
	VideoInfo   xmlVideoInfo `xml:"video_info"`
	Description string       `xml:"description"`
	AISummary   string       `xml:"ai_summary,omitempty"`
	KeyTopics   *xmlTopics   `xml:"key_topics,omitempty"`
	Translation string       `xml:"translation,omitempty"`
	Transcript  struct {
		Entries []xmlEntry `xml:"entry"`
	} `xml:"transcript"`
	Metadata xmlMetaBlock `xml:"metadata"`
}

// xmlFormatter mirrors the JSON shape under a youtube_transcript root.
type xmlFormatter struct{}

func (xmlFormatter) Extension() string { return "xml" }
func (xmlFormatter) Name() string      { return "xml" }

func (xmlFormatter) Format(doc *Document) ([]byte, error) {
	out := xmlDoc{
		VideoInfo: xmlVideoInfo{
			Title:             doc.Meta.Title,
			Channel:           doc.Meta.Channel,
			UploadDate:        doc.Meta.UploadDate,
			Duration:          doc.Meta.Duration,
			DurationFormatted: youtube.FormatTimestamp(doc.Meta.Duration),
			ViewCount:         doc.Meta.ViewCount,
		},
		Description: doc.Meta.Description,
		AISummary:   doc.Summary,
		Translation: doc.Translation,
		Metadata: xmlMetaBlock{
			TotalEntries: len(doc.Transcript),
			GeneratedAt:  doc.generatedAt(),
		},
	}
	if len(doc.Topics) > 0 {
		out.KeyTopics = &xmlTopics{Topics: doc.Topics}
	}
	for _, e := range doc.Transcript {
		out.Transcript.Entries = append(out.Transcript.Entries, xmlEntry{
			Timestamp:    e.Timestamp,
			StartSeconds: e.Start,
			Duration:     e.Duration,
			Text:         strings.TrimSpace(e.Text),
		})
	}

	body, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
