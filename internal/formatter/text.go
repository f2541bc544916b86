package formatter

import (
	"fmt"
	"strings"

	"github.com/vidscribe/vidscribe/internal/youtube"
)

const (
	heavyRule = "================================================================================"
	lightRule = "--------------------------------------------------------------------------------"
)

// textFormatter writes the ruled-section plain text layout.
type textFormatter struct{}

func (textFormatter) Extension() string { return "txt" }
func (textFormatter) Name() string      { return "text" }

func (textFormatter) Format(doc *Document) ([]byte, error) {
	var b strings.Builder

	b.WriteString(heavyRule + "\n")
	b.WriteString("YouTube Video Transcript\n")
	b.WriteString(heavyRule + "\n\n")

	b.WriteString("📹 Video Information\n")
	b.WriteString(lightRule + "\n")
	fmt.Fprintf(&b, "Title: %s\n", doc.Meta.Title)
	fmt.Fprintf(&b, "Channel: %s\n", doc.Meta.Channel)
	fmt.Fprintf(&b, "Upload Date: %s\n", doc.Meta.UploadDate)
	fmt.Fprintf(&b, "Duration: %s\n", youtube.FormatTimestamp(doc.Meta.Duration))
	fmt.Fprintf(&b, "Views: %s\n\n", groupDigits(doc.Meta.ViewCount))

	b.WriteString("📝 Description\n")
	b.WriteString(lightRule + "\n")
	fmt.Fprintf(&b, "%s\n\n", doc.Meta.Description)

	if doc.Summary != "" {
		b.WriteString("🤖 AI Summary\n")
		b.WriteString(lightRule + "\n")
		fmt.Fprintf(&b, "%s\n\n", doc.Summary)
	}

	if len(doc.Topics) > 0 {
		b.WriteString("🔑 Key Topics\n")
		b.WriteString(lightRule + "\n")
		for _, topic := range doc.Topics {
			fmt.Fprintf(&b, "• %s\n", topic)
		}
		b.WriteString("\n")
	}

	if doc.Translation != "" {
		b.WriteString("🌐 Translation\n")
		b.WriteString(lightRule + "\n")
		fmt.Fprintf(&b, "%s\n\n", doc.Translation)
	}

	if len(doc.Transcript) > 0 {
		b.WriteString("📜 Transcript with Timestamps\n")
		b.WriteString(heavyRule + "\n\n")
		for _, entry := range doc.Transcript {
			fmt.Fprintf(&b, "[%s] %s\n", entry.Timestamp, strings.TrimSpace(entry.Text))
		}
		b.WriteString("\n" + heavyRule + "\n")
		fmt.Fprintf(&b, "Total transcript entries: %d\n", len(doc.Transcript))
	} else {
		b.WriteString("📜 Transcript\n")
		b.WriteString(heavyRule + "\n")
		b.WriteString("No transcript available for this video.\n")
	}

	fmt.Fprintf(&b, "\nGenerated on: %s\n", doc.generatedAt())

	return []byte(b.String()), nil
}
