package api

import (
	"net/http"

	"github.com/vidscribe/vidscribe/internal/scrape"
)

// WSScrapeRequest is the first message a websocket client sends: the
// playlist (or single video) to scrape plus per-video options.
type WSScrapeRequest struct {
	URL       string       `json:"url"`
	MaxVideos int          `json:"max_videos,omitempty"`
	Video     VideoRequest `json:"video,omitempty"`
}

// WSEvent is one message in the progress stream.
type WSEvent struct {
	Type    string `json:"type"` // "progress", "done", "error"
	Index   int    `json:"index,omitempty"`
	Total   int    `json:"total,omitempty"`
	VideoID string `json:"video_id,omitempty"`
	Title   string `json:"title,omitempty"`
	Error   string `json:"error,omitempty"`

	// Done summary
	Scraped int `json:"scraped,omitempty"`
	Failed  int `json:"failed,omitempty"`
}

// handleScrapeWS streams per-video progress for a playlist scrape over
// a websocket. The client sends one WSScrapeRequest; the server replies
// with a progress event per video and a final done (or error) event,
// then closes.
// GET /video/scrape/ws
func (s *Server) handleScrapeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req WSScrapeRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(WSEvent{Type: "error", Error: "invalid request message"})
		return
	}
	if req.URL == "" {
		conn.WriteJSON(WSEvent{Type: "error", Error: "url is required"})
		return
	}

	video := req.Video.toScrapeRequest()

	// Single videos stream as a one-entry scrape.
	if kind, _ := scrape.ProcessURL(req.URL); kind == scrape.KindVideo {
		video.URL = req.URL
		res, err := s.pipeline.Scrape(r.Context(), video)
		if err != nil {
			conn.WriteJSON(WSEvent{Type: "error", Error: err.Error()})
			return
		}
		conn.WriteJSON(WSEvent{Type: "progress", Index: 1, Total: 1, VideoID: res.Meta.VideoID, Title: res.Meta.Title})
		conn.WriteJSON(WSEvent{Type: "done", Scraped: 1})
		return
	}

	result, err := s.pipeline.ScrapePlaylist(r.Context(), scrape.PlaylistRequest{
		URL:       req.URL,
		MaxVideos: req.MaxVideos,
		Video:     video,
	}, func(p scrape.Progress) {
		ev := WSEvent{
			Type:    "progress",
			Index:   p.Index,
			Total:   p.Total,
			VideoID: p.VideoID,
			Title:   p.Title,
		}
		if p.Err != nil {
			ev.Error = p.Err.Error()
		}
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debug("websocket write failed", "error", err)
		}
	})
	if err != nil {
		conn.WriteJSON(WSEvent{Type: "error", Error: err.Error()})
		return
	}

	conn.WriteJSON(WSEvent{
		Type:    "done",
		Scraped: len(result.Results),
		Failed:  len(result.Failures),
	})
}
