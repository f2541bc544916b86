package scrape

import (
	"context"

	"github.com/vidscribe/vidscribe/internal/youtube"
)

// URLKind classifies what a URL points at.
type URLKind string

const (
	KindVideo    URLKind = "video"
	KindPlaylist URLKind = "playlist"
	KindUnknown  URLKind = "unknown"
)

// ProcessURL classifies a URL as video, playlist, or unknown and
// returns the extracted id. Watch URLs carrying a list parameter count
// as playlists.
func ProcessURL(rawURL string) (URLKind, string) {
	if youtube.IsPlaylistURL(rawURL) {
		if id, err := youtube.ExtractPlaylistID(rawURL); err == nil {
			return KindPlaylist, id
		}
		return KindPlaylist, ""
	}
	if id, err := youtube.ExtractVideoID(rawURL); err == nil {
		return KindVideo, id
	}
	return KindUnknown, ""
}

// PlaylistRequest describes a playlist scrape: the per-video request
// template plus playlist bounds.
type PlaylistRequest struct {
	URL       string
	MaxVideos int // 0 = all

	// Video is applied to every entry; its URL field is overwritten.
	Video Request
}

// VideoFailure records one entry that could not be scraped.
type VideoFailure struct {
	VideoID string
	Title   string
	Err     error
}

// PlaylistResult aggregates a playlist scrape.
type PlaylistResult struct {
	Info     youtube.PlaylistInfo
	Results  []*Result
	Failures []VideoFailure
}

// Progress reports per-video advancement during a playlist scrape.
type Progress struct {
	Index   int // 1-based
	Total   int
	VideoID string
	Title   string
	Err     error // non-nil when this entry failed
}

// ProgressFunc receives progress events. It is called synchronously
// between videos.
type ProgressFunc func(Progress)

// ScrapePlaylist resolves the playlist entries and scrapes each video
// sequentially. Per-video failures are recorded and skipped; the scrape
// only fails outright when the playlist itself cannot be resolved or
// the context is cancelled.
func (s *Service) ScrapePlaylist(ctx context.Context, req PlaylistRequest, progress ProgressFunc) (*PlaylistResult, error) {
	info, err := s.yt.PlaylistInfo(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	entries, err := s.yt.PlaylistEntries(ctx, req.URL, req.MaxVideos)
	if err != nil {
		return nil, err
	}

	out := &PlaylistResult{Info: *info}
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		videoReq := req.Video
		videoReq.URL = entry.URL

		res, err := s.Scrape(ctx, videoReq)
		if err != nil {
			s.logger.Warn("playlist entry failed",
				"playlist_id", info.PlaylistID,
				"video_id", entry.ID,
				"error", err,
			)
			out.Failures = append(out.Failures, VideoFailure{
				VideoID: entry.ID,
				Title:   entry.Title,
				Err:     err,
			})
		} else {
			out.Results = append(out.Results, res)
		}

		if progress != nil {
			progress(Progress{
				Index:   i + 1,
				Total:   len(entries),
				VideoID: entry.ID,
				Title:   entry.Title,
				Err:     err,
			})
		}
	}

	s.logger.Info("playlist scrape finished",
		"playlist_id", info.PlaylistID,
		"scraped", len(out.Results),
		"failed", len(out.Failures),
	)
	return out, nil
}
