// Package api implements the HTTP API for the scrape service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vidscribe/vidscribe/internal/buildinfo"
	"github.com/vidscribe/vidscribe/internal/gemini"
	"github.com/vidscribe/vidscribe/internal/scrape"
	"github.com/vidscribe/vidscribe/internal/store"
	"github.com/vidscribe/vidscribe/internal/transcript"
	"github.com/vidscribe/vidscribe/internal/updater"
	"github.com/vidscribe/vidscribe/internal/youtube"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address  string
	port     int
	pipeline *scrape.Service
	yt       scrape.MetadataClient
	subs     scrape.TranscriptFetcher
	ai       scrape.AIClient
	usage    *store.Store
	checker  *updater.Checker
	logger   *slog.Logger
	server   *http.Server
	upgrader websocket.Upgrader

	// cached yt-dlp release status, refreshed at most once per hour
	statusMu sync.Mutex
	status   *updater.Status
	statusAt time.Time
}

// NewServer creates a new API server.
func NewServer(address string, port int, pipeline *scrape.Service, yt scrape.MetadataClient, subs scrape.TranscriptFetcher, ai scrape.AIClient, logger *slog.Logger) *Server {
	return &Server{
		address:  address,
		port:     port,
		pipeline: pipeline,
		yt:       yt,
		subs:     subs,
		ai:       ai,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// SetUsageStore configures the store backing /usage/stats.
func (s *Server) SetUsageStore(st *store.Store) {
	s.usage = st
}

// SetChecker configures the yt-dlp release checker for /version.
func (s *Server) SetChecker(c *updater.Checker) {
	s.checker = c
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)

	mux.HandleFunc("POST /video/info", s.handleVideoInfo)
	mux.HandleFunc("POST /video/scrape", s.handleVideoScrape)
	mux.HandleFunc("GET /video/metadata", s.handleVideoMetadata)
	mux.HandleFunc("GET /video/transcript", s.handleVideoTranscript)
	mux.HandleFunc("GET /video/scrape/ws", s.handleScrapeWS)

	mux.HandleFunc("GET /playlist/check", s.handlePlaylistCheck)
	mux.HandleFunc("GET /playlist/info", s.handlePlaylistInfo)
	mux.HandleFunc("GET /playlist/videos", s.handlePlaylistVideos)

	mux.HandleFunc("POST /ai/summary", s.handleAISummary)
	mux.HandleFunc("POST /ai/translate", s.handleAITranslate)
	mux.HandleFunc("POST /ai/topics", s.handleAITopics)
	mux.HandleFunc("POST /ai/enhance", s.handleAIEnhance)
	mux.HandleFunc("GET /ai/health", s.handleAIHealth)

	mux.HandleFunc("GET /usage/stats", s.handleUsageStats)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // playlist scrapes are slow
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		r = r.WithContext(gemini.WithRequestID(r.Context(), requestID))
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.errorResponse(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "vidscribe",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"build": buildinfo.Info()}
	if st := s.ytdlpStatus(r.Context()); st != nil {
		resp["yt_dlp"] = st
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp, s.logger)
}

// ytdlpStatus returns the cached release check, refreshing it at most
// once per hour to stay inside GitHub rate limits.
func (s *Server) ytdlpStatus(ctx context.Context) *updater.Status {
	if s.checker == nil {
		return nil
	}

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if s.status != nil && time.Since(s.statusAt) < time.Hour {
		return s.status
	}

	st := s.checker.Check(ctx)
	s.status = &st
	s.statusAt = time.Now()
	return s.status
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]string{"error": message}, s.logger)
}

// mapError translates pipeline errors to HTTP status codes.
func mapError(err error) int {
	switch {
	case errors.Is(err, youtube.ErrInvalidURL), errors.Is(err, youtube.ErrNotPlaylist),
		errors.Is(err, gemini.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, transcript.ErrNoTranscript), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gemini.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the mapped error response and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, err error) {
	code := mapError(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.errorResponse(w, code, err.Error())
}
