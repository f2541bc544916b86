// Package formatter serializes scraped video documents into the
// supported output formats. Each format is a strategy behind the
// Formatter interface; New selects one by name.
package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/vidscribe/vidscribe/internal/transcript"
	"github.com/vidscribe/vidscribe/internal/youtube"
)

// Document is the assembled scrape result handed to a formatter:
// video metadata, the transcript, and whatever AI fields were produced.
type Document struct {
	Meta       youtube.Metadata
	Transcript []transcript.Entry

	// AI fields, empty when not requested or unavailable.
	Summary     string
	Translation string
	Topics      []string

	// GeneratedAt stamps the output. Zero means "now".
	GeneratedAt time.Time
}

// generatedAt returns the document timestamp in the fixed layout all
// formats share.
func (d *Document) generatedAt() string {
	t := d.GeneratedAt
	if t.IsZero() {
		t = time.Now()
	}
	return t.Format("2006-01-02 15:04:05")
}

// Formatter renders a Document into one output format.
type Formatter interface {
	// Format serializes the document.
	Format(doc *Document) ([]byte, error)

	// Extension is the file extension without the dot, e.g. "json".
	Extension() string

	// Name is the canonical format name used in requests and config.
	Name() string
}

// New returns the formatter for a format name. Accepted names are
// txt/text, json, xml, md/markdown, and html.
func New(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "txt", "text":
		return textFormatter{}, nil
	case "json":
		return jsonFormatter{}, nil
	case "xml":
		return xmlFormatter{}, nil
	case "md", "markdown":
		return markdownFormatter{}, nil
	case "html":
		return htmlFormatter{}, nil
	default:
		return nil, fmt.Errorf("formatter: unknown format %q (want txt, json, xml, markdown, or html)", name)
	}
}

// Names lists the canonical format names in presentation order.
func Names() []string {
	return []string{"text", "json", "xml", "markdown", "html"}
}

// groupDigits renders n with thousands separators, e.g. 1234567 →
// "1,234,567".
func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
