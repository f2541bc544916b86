package youtube

import (
	"context"
	"encoding/json"
	"fmt"
)

// PlaylistInfo holds the normalized metadata of a playlist.
type PlaylistInfo struct {
	PlaylistID  string `json:"playlist_id"`
	Title       string `json:"title"`
	Uploader    string `json:"uploader"`
	VideoCount  int    `json:"video_count"`
	Description string `json:"description,omitempty"`
}

// PlaylistEntry is one video reference inside a playlist.
type PlaylistEntry struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Position int    `json:"position"` // 0-based
}

// ytdlpPlaylist is the subset of yt-dlp --flat-playlist output we parse.
type ytdlpPlaylist struct {
	Type          string       `json:"_type"`
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Uploader      string       `json:"uploader"`
	Channel       string       `json:"channel"`
	Description   string       `json:"description"`
	PlaylistCount int          `json:"playlist_count"`
	Entries       []ytdlpEntry `json:"entries"`
}

type ytdlpEntry struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// PlaylistInfo fetches playlist metadata without touching the videos
// themselves (yt-dlp --flat-playlist).
func (c *Client) PlaylistInfo(ctx context.Context, rawURL string) (*PlaylistInfo, error) {
	info, _, err := c.playlistDump(ctx, rawURL)
	return info, err
}

// PlaylistEntries fetches the video references of a playlist, in
// playlist order. max <= 0 means no limit.
func (c *Client) PlaylistEntries(ctx context.Context, rawURL string, max int) ([]PlaylistEntry, error) {
	_, entries, err := c.playlistDump(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if max > 0 && len(entries) > max {
		entries = entries[:max]
	}
	return entries, nil
}

func (c *Client) playlistDump(ctx context.Context, rawURL string) (*PlaylistInfo, []PlaylistEntry, error) {
	if !IsPlaylistURL(rawURL) {
		return nil, nil, fmt.Errorf("%w: %q", ErrNotPlaylist, rawURL)
	}
	if c.cfg.YtDlpPath == "" {
		return nil, nil, fmt.Errorf("youtube: yt-dlp not found (install yt-dlp or set youtube.yt_dlp_path)")
	}

	out, err := c.run(ctx, []string{"-J", "--flat-playlist", "--no-warnings", rawURL})
	if err != nil {
		return nil, nil, fmt.Errorf("youtube: playlist: %w", err)
	}

	return parsePlaylist(out)
}

// parsePlaylist converts a yt-dlp flat-playlist JSON dump into info and
// entries. Entries without an id are skipped; entries without a URL get
// the canonical watch URL.
func parsePlaylist(dump []byte) (*PlaylistInfo, []PlaylistEntry, error) {
	var p ytdlpPlaylist
	if err := json.Unmarshal(dump, &p); err != nil {
		return nil, nil, fmt.Errorf("youtube: parse yt-dlp output: %w", err)
	}
	if p.Type != "playlist" {
		return nil, nil, ErrNotPlaylist
	}

	var entries []PlaylistEntry
	for i, e := range p.Entries {
		if e.ID == "" {
			continue
		}
		u := e.URL
		if u == "" {
			u = WatchURL(e.ID)
		}
		title := e.Title
		if title == "" {
			title = "Unknown Title"
		}
		entries = append(entries, PlaylistEntry{
			ID:       e.ID,
			URL:      u,
			Title:    title,
			Position: i,
		})
	}

	count := p.PlaylistCount
	if count == 0 {
		count = len(entries)
	}

	info := &PlaylistInfo{
		PlaylistID:  p.ID,
		Title:       p.Title,
		Uploader:    firstNonEmpty(p.Uploader, p.Channel),
		VideoCount:  count,
		Description: p.Description,
	}
	return info, entries, nil
}
