// Package youtube extracts video and playlist metadata via yt-dlp.
// It wraps the yt-dlp binary for JSON metadata dumps and normalizes
// the fields this service cares about. Subtitle retrieval lives in
// the transcript package.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// ErrInvalidURL indicates the given string is not a recognizable
// YouTube video or playlist URL.
var ErrInvalidURL = errors.New("youtube: invalid url")

// ErrNotPlaylist indicates a playlist operation was invoked on a URL
// that does not reference a playlist.
var ErrNotPlaylist = errors.New("youtube: not a playlist url")

// Config holds settings for the yt-dlp metadata client.
type Config struct {
	// YtDlpPath is the path to the yt-dlp binary. If empty, the binary
	// is located via exec.LookPath.
	YtDlpPath string

	// CookiesFile is an optional path to a Netscape-format cookie file
	// for accessing auth-required content.
	CookiesFile string

	// Timeout bounds a single yt-dlp invocation. Default: 2 minutes.
	Timeout time.Duration
}

// Client extracts YouTube metadata through yt-dlp.
type Client struct {
	cfg    Config
	logger *slog.Logger

	// run executes yt-dlp and returns its stdout. Overridable in tests.
	run func(ctx context.Context, args []string) ([]byte, error)
}

// New creates a metadata client. The yt-dlp binary path is resolved
// via Config.YtDlpPath or exec.LookPath.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.YtDlpPath == "" {
		if p, err := exec.LookPath("yt-dlp"); err == nil {
			cfg.YtDlpPath = p
		}
	}

	c := &Client{cfg: cfg, logger: logger}
	c.run = c.runYtDlp
	return c
}

// Available reports whether the yt-dlp binary was found.
func (c *Client) Available() bool {
	return c.cfg.YtDlpPath != ""
}

// BinaryPath returns the resolved yt-dlp path, empty when not found.
func (c *Client) BinaryPath() string {
	return c.cfg.YtDlpPath
}

// Metadata holds the normalized metadata of a single video.
type Metadata struct {
	VideoID      string   `json:"video_id"`
	Title        string   `json:"title"`
	Channel      string   `json:"channel"`
	ChannelID    string   `json:"channel_id,omitempty"`
	UploadDate   string   `json:"upload_date"` // YYYY-MM-DD
	Duration     float64  `json:"duration"`    // seconds
	ViewCount    int64    `json:"view_count"`
	LikeCount    int64    `json:"like_count,omitempty"`
	Description  string   `json:"description"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Categories   []string `json:"categories,omitempty"`
}

// ytdlpVideo is the subset of yt-dlp -J output we parse for videos.
type ytdlpVideo struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Channel     string   `json:"channel"`
	Uploader    string   `json:"uploader"`
	ChannelID   string   `json:"channel_id"`
	UploadDate  string   `json:"upload_date"`
	Duration    float64  `json:"duration"`
	ViewCount   int64    `json:"view_count"`
	LikeCount   int64    `json:"like_count"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
}

// Metadata fetches the metadata of a single video.
func (c *Client) Metadata(ctx context.Context, rawURL string) (*Metadata, error) {
	if _, err := ExtractVideoID(rawURL); err != nil {
		return nil, err
	}
	if c.cfg.YtDlpPath == "" {
		return nil, fmt.Errorf("youtube: yt-dlp not found (install yt-dlp or set youtube.yt_dlp_path)")
	}

	out, err := c.run(ctx, []string{"-J", "--no-warnings", rawURL})
	if err != nil {
		return nil, fmt.Errorf("youtube: metadata: %w", err)
	}

	return parseMetadata(out)
}

// parseMetadata converts a yt-dlp single-video JSON dump into Metadata.
// Missing fields become zero values rather than errors.
func parseMetadata(dump []byte) (*Metadata, error) {
	var v ytdlpVideo
	if err := json.Unmarshal(dump, &v); err != nil {
		return nil, fmt.Errorf("youtube: parse yt-dlp output: %w", err)
	}

	return &Metadata{
		VideoID:      v.ID,
		Title:        v.Title,
		Channel:      firstNonEmpty(v.Channel, v.Uploader),
		ChannelID:    v.ChannelID,
		UploadDate:   formatDate(v.UploadDate),
		Duration:     v.Duration,
		ViewCount:    v.ViewCount,
		LikeCount:    v.LikeCount,
		Description:  v.Description,
		ThumbnailURL: v.Thumbnail,
		Tags:         v.Tags,
		Categories:   v.Categories,
	}, nil
}

// runYtDlp executes yt-dlp with the given arguments and returns stdout.
func (c *Client) runYtDlp(ctx context.Context, args []string) ([]byte, error) {
	if c.cfg.CookiesFile != "" {
		args = append([]string{"--cookies", c.cfg.CookiesFile}, args...)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	c.logger.Debug("running yt-dlp", "args", args)
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.cfg.YtDlpPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errOutput := stderr.String()
		if len(errOutput) > 500 {
			errOutput = errOutput[:500]
		}
		return nil, fmt.Errorf("%w: %s", err, errOutput)
	}

	c.logger.Debug("yt-dlp finished",
		"duration", time.Since(start),
		"stdout_bytes", stdout.Len(),
	)
	return stdout.Bytes(), nil
}

// formatDate converts yt-dlp's "YYYYMMDD" date format to "YYYY-MM-DD".
func formatDate(yyyymmdd string) string {
	if len(yyyymmdd) != 8 {
		return yyyymmdd
	}
	return yyyymmdd[:4] + "-" + yyyymmdd[4:6] + "-" + yyyymmdd[6:8]
}

// firstNonEmpty returns the first non-empty string from the arguments.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
