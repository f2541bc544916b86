package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/vidscribe/vidscribe/internal/scrape"
	"github.com/vidscribe/vidscribe/internal/transcript"
	"github.com/vidscribe/vidscribe/internal/youtube"
)

// VideoRequest is the body for /video/info and /video/scrape.
type VideoRequest struct {
	URL          string   `json:"url"`
	Languages    []string `json:"languages,omitempty"`
	PreferManual *bool    `json:"prefer_manual,omitempty"`

	// scrape-only fields
	Summarize     bool   `json:"summarize,omitempty"`
	MaxPoints     int    `json:"max_points,omitempty"`
	Translate     bool   `json:"translate,omitempty"`
	TargetLang    string `json:"target_language,omitempty"`
	ExtractTopics bool   `json:"extract_topics,omitempty"`
	NumTopics     int    `json:"num_topics,omitempty"`
	PromptLang    string `json:"language,omitempty"`
	Format        string `json:"format,omitempty"`
}

// VideoResponse is the body for video scrape results.
type VideoResponse struct {
	Metadata    youtube.Metadata   `json:"metadata"`
	Language    string             `json:"transcript_language,omitempty"`
	Auto        bool               `json:"auto_generated,omitempty"`
	Transcript  []transcript.Entry `json:"transcript"`
	Summary     string             `json:"ai_summary,omitempty"`
	Translation string             `json:"translation,omitempty"`
	Topics      []string           `json:"key_topics,omitempty"`
	FromCache   bool               `json:"from_cache,omitempty"`
	OutputPath  string             `json:"output_path,omitempty"`
}

func videoResponse(res *scrape.Result) VideoResponse {
	entries := res.Track.Entries
	if entries == nil {
		entries = []transcript.Entry{}
	}
	return VideoResponse{
		Metadata:    res.Meta,
		Language:    res.Track.Language,
		Auto:        res.Track.Auto,
		Transcript:  entries,
		Summary:     res.Summary,
		Translation: res.Translation,
		Topics:      res.Topics,
		FromCache:   res.FromCache,
		OutputPath:  res.OutputPath,
	}
}

func (r VideoRequest) toScrapeRequest() scrape.Request {
	return scrape.Request{
		URL:           r.URL,
		Languages:     r.Languages,
		PreferManual:  r.PreferManual,
		Summarize:     r.Summarize,
		MaxPoints:     r.MaxPoints,
		Translate:     r.Translate,
		TargetLang:    r.TargetLang,
		ExtractTopics: r.ExtractTopics,
		NumTopics:     r.NumTopics,
		PromptLang:    r.PromptLang,
		Format:        r.Format,
	}
}

func (s *Server) decodeVideoRequest(w http.ResponseWriter, r *http.Request) (VideoRequest, bool) {
	var req VideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.URL == "" {
		s.errorResponse(w, http.StatusBadRequest, "url is required")
		return req, false
	}
	return req, true
}

// handleVideoInfo returns metadata and transcript, no AI, no artifact.
// POST /video/info {"url": "..."}
func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeVideoRequest(w, r)
	if !ok {
		return
	}

	res, err := s.pipeline.VideoInfo(r.Context(), req.toScrapeRequest())
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, videoResponse(res), s.logger)
}

// handleVideoScrape runs the full pipeline including AI enrichment and
// optional artifact output.
// POST /video/scrape {"url": "...", "summarize": true, "format": "json"}
func (s *Server) handleVideoScrape(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeVideoRequest(w, r)
	if !ok {
		return
	}

	res, err := s.pipeline.Scrape(r.Context(), req.toScrapeRequest())
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, videoResponse(res), s.logger)
}

// handleVideoMetadata returns metadata only.
// GET /video/metadata?url=...
func (s *Server) handleVideoMetadata(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.errorResponse(w, http.StatusBadRequest, "url query parameter is required")
		return
	}
	if _, err := youtube.ExtractVideoID(rawURL); err != nil {
		s.fail(w, err)
		return
	}

	meta, err := s.yt.Metadata(r.Context(), rawURL)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, meta, s.logger)
}

// handleVideoTranscript returns the transcript only.
// GET /video/transcript?url=...&languages=ko,en&prefer_manual=true
func (s *Server) handleVideoTranscript(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawURL := q.Get("url")
	if rawURL == "" {
		s.errorResponse(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	var langs []string
	if v := q.Get("languages"); v != "" {
		langs = splitCSV(v)
	}
	preferManual := true
	if v := q.Get("prefer_manual"); v != "" {
		preferManual = v == "true" || v == "1"
	}

	track, err := s.subs.Fetch(r.Context(), rawURL, langs, preferManual)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, track, s.logger)
}

// handlePlaylistCheck classifies a URL.
// GET /playlist/check?url=...
func (s *Server) handlePlaylistCheck(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.errorResponse(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	kind, id := scrape.ProcessURL(rawURL)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"is_playlist": kind == scrape.KindPlaylist,
		"kind":        kind,
		"id":          id,
	}, s.logger)
}

// handlePlaylistInfo returns playlist metadata.
// GET /playlist/info?url=...
func (s *Server) handlePlaylistInfo(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.errorResponse(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	info, err := s.yt.PlaylistInfo(r.Context(), rawURL)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, info, s.logger)
}

// handlePlaylistVideos lists playlist entries.
// GET /playlist/videos?url=...&max_videos=10
func (s *Server) handlePlaylistVideos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawURL := q.Get("url")
	if rawURL == "" {
		s.errorResponse(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	maxVideos := 0
	if v := q.Get("max_videos"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.errorResponse(w, http.StatusBadRequest, "max_videos must be a non-negative integer")
			return
		}
		maxVideos = n
	}

	entries, err := s.yt.PlaylistEntries(r.Context(), rawURL, maxVideos)
	if err != nil {
		s.fail(w, err)
		return
	}
	if entries == nil {
		entries = []youtube.PlaylistEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"videos": entries,
		"count":  len(entries),
	}, s.logger)
}

// splitCSV splits a comma-separated query value, dropping empty parts.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
