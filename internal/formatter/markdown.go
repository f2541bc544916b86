package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/vidscribe/vidscribe/internal/youtube"
)

// htmlRenderer needs the GFM table extension for the transcript table.
var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// markdownFormatter writes the document as a Markdown report with the
// transcript as a timestamp/text table.
type markdownFormatter struct{}

func (markdownFormatter) Extension() string { return "md" }
func (markdownFormatter) Name() string      { return "markdown" }

func (markdownFormatter) Format(doc *Document) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Meta.Title)

	b.WriteString("## 📹 Video Information\n\n")
	fmt.Fprintf(&b, "- **Title**: %s\n", doc.Meta.Title)
	fmt.Fprintf(&b, "- **Channel**: %s\n", doc.Meta.Channel)
	fmt.Fprintf(&b, "- **Upload Date**: %s\n", doc.Meta.UploadDate)
	fmt.Fprintf(&b, "- **Duration**: %s\n", youtube.FormatTimestamp(doc.Meta.Duration))
	fmt.Fprintf(&b, "- **Views**: %s\n\n", groupDigits(doc.Meta.ViewCount))

	b.WriteString("## 📝 Description\n\n")
	fmt.Fprintf(&b, "%s\n\n", doc.Meta.Description)

	if doc.Summary != "" {
		b.WriteString("## 🤖 AI Summary\n\n")
		fmt.Fprintf(&b, "%s\n\n", doc.Summary)
	}

	if len(doc.Topics) > 0 {
		b.WriteString("## 🔑 Key Topics\n\n")
		for _, topic := range doc.Topics {
			fmt.Fprintf(&b, "- %s\n", topic)
		}
		b.WriteString("\n")
	}

	if doc.Translation != "" {
		b.WriteString("## 🌐 Translation\n\n")
		fmt.Fprintf(&b, "%s\n\n", doc.Translation)
	}

	if len(doc.Transcript) > 0 {
		b.WriteString("## 📜 Transcript\n\n")
		b.WriteString("| Timestamp | Text |\n")
		b.WriteString("|-----------|------|\n")
		for _, entry := range doc.Transcript {
			text := strings.TrimSpace(entry.Text)
			text = strings.ReplaceAll(text, "\n", " ")
			text = strings.ReplaceAll(text, "|", `\|`)
			fmt.Fprintf(&b, "| `%s` | %s |\n", entry.Timestamp, text)
		}
		fmt.Fprintf(&b, "\n**Total transcript entries**: %d\n\n", len(doc.Transcript))
	} else {
		b.WriteString("## 📜 Transcript\n\n")
		b.WriteString("No transcript available for this video.\n\n")
	}

	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "*Generated on: %s*\n", doc.generatedAt())

	return []byte(b.String()), nil
}

// htmlFormatter renders the Markdown report to HTML.
type htmlFormatter struct{}

func (htmlFormatter) Extension() string { return "html" }
func (htmlFormatter) Name() string      { return "html" }

func (htmlFormatter) Format(doc *Document) ([]byte, error) {
	md, err := markdownFormatter{}.Format(doc)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := htmlRenderer.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("formatter: render html: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n", htmlEscape(doc.Meta.Title))
	buf.WriteString("</head>\n<body>\n")
	buf.Write(body.Bytes())
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
