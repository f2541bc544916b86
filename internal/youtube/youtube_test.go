package youtube

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

// fakeClient returns a Client whose yt-dlp invocation is replaced by a
// canned stdout dump.
func fakeClient(dump []byte, runErr error) *Client {
	c := New(Config{YtDlpPath: "/usr/bin/yt-dlp"}, slog.Default())
	c.run = func(ctx context.Context, args []string) ([]byte, error) {
		return dump, runErr
	}
	return c
}

const videoDump = `{
	"id": "dQw4w9WgXcQ",
	"title": "Test Video",
	"channel": "Test Channel",
	"channel_id": "UCtest",
	"uploader": "uploader-name",
	"upload_date": "20230115",
	"duration": 212.0,
	"view_count": 1000000,
	"like_count": 50000,
	"description": "A sample description",
	"thumbnail": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
	"tags": ["music", "video"],
	"categories": ["Music"]
}`

func TestMetadata(t *testing.T) {
	c := fakeClient([]byte(videoDump), nil)

	meta, err := c.Metadata(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Metadata error: %v", err)
	}

	if meta.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("VideoID = %q", meta.VideoID)
	}
	if meta.Title != "Test Video" {
		t.Errorf("Title = %q", meta.Title)
	}
	if meta.Channel != "Test Channel" {
		t.Errorf("Channel = %q", meta.Channel)
	}
	if meta.UploadDate != "2023-01-15" {
		t.Errorf("UploadDate = %q, want normalized date", meta.UploadDate)
	}
	if meta.Duration != 212.0 {
		t.Errorf("Duration = %v", meta.Duration)
	}
	if meta.ViewCount != 1000000 {
		t.Errorf("ViewCount = %d", meta.ViewCount)
	}
}

func TestMetadata_UploaderFallback(t *testing.T) {
	dump := `{"id": "x", "title": "t", "uploader": "only-uploader"}`
	c := fakeClient([]byte(dump), nil)

	meta, err := c.Metadata(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Metadata error: %v", err)
	}
	if meta.Channel != "only-uploader" {
		t.Errorf("Channel = %q, want uploader fallback", meta.Channel)
	}
}

func TestMetadata_InvalidURL(t *testing.T) {
	c := fakeClient([]byte(videoDump), nil)
	if _, err := c.Metadata(context.Background(), "https://example.com/"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL, got %v", err)
	}
}

func TestMetadata_RunFailure(t *testing.T) {
	c := fakeClient(nil, errors.New("exit status 1: ERROR: video unavailable"))
	if _, err := c.Metadata(context.Background(), "https://youtu.be/dQw4w9WgXcQ"); err == nil {
		t.Fatal("expected error from failing yt-dlp")
	}
}

func TestFormatDate(t *testing.T) {
	tests := []struct{ in, want string }{
		{"20230115", "2023-01-15"},
		{"", ""},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := formatDate(tt.in); got != tt.want {
			t.Errorf("formatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

const playlistDump = `{
	"_type": "playlist",
	"id": "PLabc123",
	"title": "Test Playlist",
	"uploader": "Playlist Owner",
	"description": "Playlist description",
	"playlist_count": 3,
	"entries": [
		{"id": "vid1", "url": "https://www.youtube.com/watch?v=vid1", "title": "First"},
		{"id": "", "title": "broken entry"},
		{"id": "vid2", "title": "Second"},
		{"id": "vid3", "url": "https://www.youtube.com/watch?v=vid3", "title": ""}
	]
}`

func TestPlaylistInfo(t *testing.T) {
	c := fakeClient([]byte(playlistDump), nil)

	info, err := c.PlaylistInfo(context.Background(), "https://www.youtube.com/playlist?list=PLabc123")
	if err != nil {
		t.Fatalf("PlaylistInfo error: %v", err)
	}
	if info.PlaylistID != "PLabc123" {
		t.Errorf("PlaylistID = %q", info.PlaylistID)
	}
	if info.Title != "Test Playlist" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.VideoCount != 3 {
		t.Errorf("VideoCount = %d, want playlist_count", info.VideoCount)
	}
}

func TestPlaylistEntries(t *testing.T) {
	c := fakeClient([]byte(playlistDump), nil)

	entries, err := c.PlaylistEntries(context.Background(), "https://www.youtube.com/playlist?list=PLabc123", 0)
	if err != nil {
		t.Fatalf("PlaylistEntries error: %v", err)
	}
	// The empty-id entry is skipped.
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[1].ID != "vid2" {
		t.Errorf("entries[1].ID = %q", entries[1].ID)
	}
	// Missing URL gets the canonical watch URL.
	if entries[1].URL != "https://www.youtube.com/watch?v=vid2" {
		t.Errorf("entries[1].URL = %q", entries[1].URL)
	}
	// Missing title gets a placeholder.
	if entries[2].Title != "Unknown Title" {
		t.Errorf("entries[2].Title = %q", entries[2].Title)
	}
	// Positions reflect original playlist order, including skipped entries.
	if entries[2].Position != 3 {
		t.Errorf("entries[2].Position = %d, want 3", entries[2].Position)
	}
}

func TestPlaylistEntries_Max(t *testing.T) {
	c := fakeClient([]byte(playlistDump), nil)

	entries, err := c.PlaylistEntries(context.Background(), "https://www.youtube.com/playlist?list=PLabc123", 1)
	if err != nil {
		t.Fatalf("PlaylistEntries error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestPlaylistInfo_NotPlaylist(t *testing.T) {
	c := fakeClient([]byte(playlistDump), nil)
	_, err := c.PlaylistInfo(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if !errors.Is(err, ErrNotPlaylist) {
		t.Errorf("expected ErrNotPlaylist, got %v", err)
	}
}

func TestPlaylistInfo_VideoDump(t *testing.T) {
	// A list= URL can still resolve to a single-video dump when yt-dlp
	// is configured with --no-playlist upstream. Treat it as not-a-playlist.
	c := fakeClient([]byte(videoDump), nil)
	_, err := c.PlaylistInfo(context.Background(), "https://www.youtube.com/watch?v=abc&list=PLabc")
	if !errors.Is(err, ErrNotPlaylist) {
		t.Errorf("expected ErrNotPlaylist, got %v", err)
	}
}
