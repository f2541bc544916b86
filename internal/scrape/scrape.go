// Package scrape is the orchestration pipeline: it ties the yt-dlp
// metadata client, the transcript fetcher, the Gemini client, the
// formatters, and the cache store together into the operations the API
// and CLI expose.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vidscribe/vidscribe/internal/formatter"
	"github.com/vidscribe/vidscribe/internal/gemini"
	"github.com/vidscribe/vidscribe/internal/store"
	"github.com/vidscribe/vidscribe/internal/transcript"
	"github.com/vidscribe/vidscribe/internal/youtube"
)

// MetadataClient is the yt-dlp surface the pipeline needs.
type MetadataClient interface {
	Metadata(ctx context.Context, rawURL string) (*youtube.Metadata, error)
	PlaylistInfo(ctx context.Context, rawURL string) (*youtube.PlaylistInfo, error)
	PlaylistEntries(ctx context.Context, rawURL string, max int) ([]youtube.PlaylistEntry, error)
}

// TranscriptFetcher fetches subtitle tracks.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, rawURL string, languages []string, preferManual bool) (*transcript.Track, error)
}

// AIClient is the Gemini surface the pipeline needs.
type AIClient interface {
	Available() bool
	Summarize(ctx context.Context, text string, maxPoints int, language string) (string, error)
	Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error)
	Topics(ctx context.Context, text string, numTopics int, language string) ([]string, error)
}

// Config holds pipeline settings.
type Config struct {
	// Languages is the default subtitle language priority.
	Languages []string

	// PreferManual selects manual subtitles over auto-generated ones.
	PreferManual bool

	// OutputDir receives formatted artifacts.
	OutputDir string

	// CacheTTL bounds how old a cached transcript may be before it is
	// refetched. Zero means cached rows never expire.
	CacheTTL time.Duration
}

// Service runs the scrape pipeline. The cache store is optional; a nil
// store disables caching.
type Service struct {
	cfg    Config
	yt     MetadataClient
	subs   TranscriptFetcher
	ai     AIClient
	cache  *store.Store
	logger *slog.Logger
}

// NewService assembles a pipeline. ai and cache may be nil.
func NewService(cfg Config, yt MetadataClient, subs TranscriptFetcher, ai AIClient, cache *store.Store, logger *slog.Logger) *Service {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"ko", "en"}
	}
	return &Service{cfg: cfg, yt: yt, subs: subs, ai: ai, cache: cache, logger: logger}
}

// Request describes one video scrape.
type Request struct {
	URL          string
	Languages    []string // subtitle priority, defaults to config
	PreferManual *bool    // nil = config default

	// AI enrichment. Each field is independent; failures degrade to an
	// empty result field, never a pipeline error.
	Summarize     bool
	MaxPoints     int
	Translate     bool
	TargetLang    string
	ExtractTopics bool
	NumTopics     int
	PromptLang    string // "ko" or "en" template selection

	// Format, when non-empty, writes a formatted artifact to the
	// output dir.
	Format string
}

// Result is a completed video scrape.
type Result struct {
	Meta        youtube.Metadata
	Track       transcript.Track
	Summary     string
	Translation string
	Topics      []string

	// FromCache marks the transcript as a cache hit.
	FromCache bool

	// OutputPath is the written artifact, if a format was requested.
	OutputPath string
}

// VideoInfo fetches metadata and the transcript without AI enrichment
// or artifact output.
func (s *Service) VideoInfo(ctx context.Context, req Request) (*Result, error) {
	req.Summarize, req.Translate, req.ExtractTopics = false, false, false
	req.Format = ""
	return s.Scrape(ctx, req)
}

// Scrape runs the full pipeline for one video.
func (s *Service) Scrape(ctx context.Context, req Request) (*Result, error) {
	videoID, err := youtube.ExtractVideoID(req.URL)
	if err != nil {
		return nil, err
	}

	meta, err := s.yt.Metadata(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}

	langs := req.Languages
	if len(langs) == 0 {
		langs = s.cfg.Languages
	}
	preferManual := s.cfg.PreferManual
	if req.PreferManual != nil {
		preferManual = *req.PreferManual
	}

	res := &Result{Meta: *meta}

	track, fromCache, err := s.fetchTranscript(ctx, videoID, meta.Title, req.URL, langs, preferManual)
	if err != nil {
		if !errors.Is(err, transcript.ErrNoTranscript) {
			return nil, err
		}
		s.logger.Warn("no transcript available", "video_id", videoID)
	} else {
		res.Track = *track
		res.FromCache = fromCache
	}

	s.enrich(ctx, req, videoID, res)

	if req.Format != "" {
		path, err := s.writeArtifact(req.Format, res)
		if err != nil {
			return nil, err
		}
		res.OutputPath = path
	}

	return res, nil
}

// fetchTranscript consults the cache before invoking yt-dlp. A hit
// fresher than CacheTTL skips the subtitle download entirely.
func (s *Service) fetchTranscript(ctx context.Context, videoID, title, rawURL string, langs []string, preferManual bool) (*transcript.Track, bool, error) {
	if cached := s.cachedTranscript(ctx, videoID, langs); cached != nil {
		s.logger.Debug("transcript cache hit", "video_id", videoID, "language", cached.Language)
		return &transcript.Track{
			Language: cached.Language,
			Auto:     cached.Auto,
			Entries:  cached.Entries,
		}, true, nil
	}

	track, err := s.subs.Fetch(ctx, rawURL, langs, preferManual)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.PutTranscript(ctx, videoID, title, *track); err != nil {
			s.logger.Warn("transcript cache write failed", "video_id", videoID, "error", err)
		}
	}
	return track, false, nil
}

// cachedTranscript returns a fresh cached track for any of the
// requested languages, or nil. Stored tracks carry the language of the
// subtitle file yt-dlp actually produced, which may be a regional
// variant of what was asked for ("en-US" when "en" was requested), so
// an exact lookup per language is followed by a variant-tolerant pass
// over the newest row.
func (s *Service) cachedTranscript(ctx context.Context, videoID string, langs []string) *store.CachedTranscript {
	if s.cache == nil {
		return nil
	}

	for _, lang := range langs {
		cached, err := s.cache.GetTranscript(ctx, videoID, lang)
		if err == nil && s.fresh(cached) {
			return cached
		}
	}

	cached, err := s.cache.AnyTranscript(ctx, videoID)
	if err != nil || !s.fresh(cached) {
		return nil
	}
	if langMatches(cached.Language, langs) {
		return cached
	}
	return nil
}

// fresh reports whether a cached row is within CacheTTL. Zero TTL
// means rows never expire.
func (s *Service) fresh(cached *store.CachedTranscript) bool {
	return s.cfg.CacheTTL <= 0 || time.Since(cached.FetchedAt) <= s.cfg.CacheTTL
}

// langMatches reports whether lang satisfies any requested language,
// accepting regional and "-orig" variants ("en-US", "en-orig" for "en").
func langMatches(lang string, wants []string) bool {
	for _, want := range wants {
		if lang == want || strings.HasPrefix(lang, want+"-") {
			return true
		}
	}
	return false
}

// enrich runs the requested AI operations. Each failure logs a warning
// and leaves its result field empty. The video id rides the context so
// usage records can attribute token spend to the video.
func (s *Service) enrich(ctx context.Context, req Request, videoID string, res *Result) {
	if !req.Summarize && !req.Translate && !req.ExtractTopics {
		return
	}
	if s.ai == nil || !s.ai.Available() {
		s.logger.Warn("AI enrichment requested but unavailable", "video_id", videoID)
		return
	}

	// Paragraph breaks at cue gaps give the model discourse structure a
	// flat word stream loses.
	text := transcript.JoinParagraphs(res.Track.Entries)
	if text == "" {
		s.logger.Warn("AI enrichment skipped, no transcript text", "video_id", videoID)
		return
	}

	ctx = gemini.WithVideoID(ctx, videoID)

	if req.Summarize {
		summary, err := s.ai.Summarize(ctx, text, req.MaxPoints, req.PromptLang)
		if err != nil {
			s.logger.Warn("summarization failed", "video_id", videoID, "error", err)
		} else {
			res.Summary = summary
		}
	}

	if req.Translate {
		translation, err := s.ai.Translate(ctx, text, req.TargetLang, "")
		if err != nil {
			s.logger.Warn("translation failed", "video_id", videoID, "error", err)
		} else {
			res.Translation = translation
		}
	}

	if req.ExtractTopics {
		topics, err := s.ai.Topics(ctx, text, req.NumTopics, req.PromptLang)
		if err != nil {
			s.logger.Warn("topic extraction failed", "video_id", videoID, "error", err)
		} else {
			res.Topics = topics
		}
	}
}

// writeArtifact serializes the result and writes it under the output
// dir with a filename derived from the video title.
func (s *Service) writeArtifact(format string, res *Result) (string, error) {
	f, err := formatter.New(format)
	if err != nil {
		return "", err
	}

	doc := &formatter.Document{
		Meta:        res.Meta,
		Transcript:  res.Track.Entries,
		Summary:     res.Summary,
		Translation: res.Translation,
		Topics:      res.Topics,
	}
	out, err := f.Format(doc)
	if err != nil {
		return "", fmt.Errorf("format output: %w", err)
	}

	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := SanitizeFilename(res.Meta.Title)
	if name == "" {
		name = res.Meta.VideoID
	}
	path := filepath.Join(s.cfg.OutputDir, name+"."+f.Extension())
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", fmt.Errorf("write output file: %w", err)
	}

	s.logger.Info("artifact written", "path", path, "format", f.Name())
	return path, nil
}

// maxFilenameLen bounds sanitized titles so paths stay portable.
const maxFilenameLen = 100

// SanitizeFilename turns a video title into a safe filename stem.
func SanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|' || r == 0:
			b.WriteRune('_')
		case r < 0x20:
			// control characters
		default:
			b.WriteRune(r)
		}
	}
	name := strings.TrimSpace(b.String())
	name = strings.Trim(name, ".")
	if len(name) > maxFilenameLen {
		name = name[:maxFilenameLen]
		// avoid splitting a multibyte rune at the cut
		for len(name) > 0 && !utf8.ValidString(name) {
			name = name[:len(name)-1]
		}
	}
	return strings.TrimSpace(name)
}
