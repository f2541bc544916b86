package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/vidscribe/vidscribe/internal/youtube"
)

// ErrNoTranscript indicates the video has no subtitle track in any of
// the requested languages, manual or auto-generated.
var ErrNoTranscript = errors.New("transcript: no subtitles available")

// Track is a fetched subtitle track.
type Track struct {
	Language string  `json:"language"`
	Auto     bool    `json:"auto"` // auto-generated captions
	Entries  []Entry `json:"entries"`
}

// Config holds settings for the transcript fetcher.
type Config struct {
	// YtDlpPath is the path to the yt-dlp binary. If empty, the binary
	// is located via exec.LookPath.
	YtDlpPath string

	// CookiesFile is an optional Netscape-format cookie file.
	CookiesFile string

	// Timeout bounds a single yt-dlp invocation. Default: 2 minutes.
	Timeout time.Duration
}

// Fetcher downloads and parses subtitle tracks.
type Fetcher struct {
	cfg    Config
	logger *slog.Logger

	// download runs yt-dlp so that subtitle files for rawURL land in
	// dir. Overridable in tests.
	download func(ctx context.Context, rawURL string, langs []string, auto bool, dir string) error
}

// NewFetcher creates a transcript fetcher.
func NewFetcher(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.YtDlpPath == "" {
		if p, err := exec.LookPath("yt-dlp"); err == nil {
			cfg.YtDlpPath = p
		}
	}

	f := &Fetcher{cfg: cfg, logger: logger}
	f.download = f.runYtDlp
	return f
}

// Fetch retrieves the best subtitle track for the video. Languages are
// tried in priority order. When preferManual is set, manually-created
// tracks across all languages are tried before any auto-generated
// captions; otherwise auto-generated captions are tried first. Each
// pass downloads only one subtitle class so the track's Auto flag
// always reflects what was actually found.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, languages []string, preferManual bool) (*Track, error) {
	if _, err := youtube.ExtractVideoID(rawURL); err != nil {
		return nil, err
	}
	if f.cfg.YtDlpPath == "" {
		return nil, fmt.Errorf("transcript: yt-dlp not found (install yt-dlp or set youtube.yt_dlp_path)")
	}
	if len(languages) == 0 {
		languages = []string{"ko", "en"}
	}

	passes := []bool{false, true} // manual first, then auto
	if !preferManual {
		passes = []bool{true, false}
	}

	for _, auto := range passes {
		track, err := f.fetchPass(ctx, rawURL, languages, auto)
		if err != nil {
			return nil, err
		}
		if track != nil {
			return track, nil
		}
	}

	return nil, fmt.Errorf("%w for %q (languages %v)", ErrNoTranscript, rawURL, languages)
}

// fetchPass downloads one round of subtitle files into a temp dir and
// returns the first track matching the language priority, or nil when
// nothing was written.
func (f *Fetcher) fetchPass(ctx context.Context, rawURL string, languages []string, auto bool) (*Track, error) {
	tmpDir, err := os.MkdirTemp("", "vidscribe-subs-*")
	if err != nil {
		return nil, fmt.Errorf("transcript: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := f.download(ctx, rawURL, languages, auto, tmpDir); err != nil {
		return nil, fmt.Errorf("transcript: yt-dlp: %w", err)
	}

	path, lang := pickSubtitleFile(tmpDir, languages)
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transcript: read subtitle file: %w", err)
	}

	entries := ParseVTT(string(raw))
	if len(entries) == 0 {
		return nil, nil
	}

	f.logger.Info("fetched transcript",
		"url", rawURL,
		"language", lang,
		"auto", auto,
		"entries", len(entries),
	)
	return &Track{Language: lang, Auto: auto, Entries: entries}, nil
}

// runYtDlp invokes yt-dlp to write subtitle files (and nothing else)
// into dir. yt-dlp names them {id}.{lang}.vtt. Each invocation requests
// exactly one subtitle class so the caller knows which kind it got.
func (f *Fetcher) runYtDlp(ctx context.Context, rawURL string, langs []string, auto bool, dir string) error {
	args := []string{
		"--skip-download",
		"--sub-format", "vtt",
		"--sub-langs", strings.Join(langs, ","),
		"--no-warnings",
		"-o", filepath.Join(dir, "%(id)s"),
	}
	if auto {
		args = append(args, "--write-auto-sub")
	} else {
		args = append(args, "--write-sub")
	}
	if f.cfg.CookiesFile != "" {
		args = append([]string{"--cookies", f.cfg.CookiesFile}, args...)
	}
	args = append(args, rawURL)

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	f.logger.Debug("running yt-dlp for subtitles", "url", rawURL, "auto", auto)

	cmd := exec.CommandContext(ctx, f.cfg.YtDlpPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := string(out)
		if len(msg) > 500 {
			msg = msg[:500]
		}
		return fmt.Errorf("%w: %s", err, msg)
	}
	return nil
}

// pickSubtitleFile scans dir for {id}.{lang}.vtt files and returns the
// one matching the earliest language in the priority list, falling
// back to any .vtt file present.
func pickSubtitleFile(dir string, languages []string) (path, lang string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ""
	}

	type candidate struct {
		path string
		lang string
	}
	var candidates []candidate
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".vtt") {
			continue
		}
		candidates = append(candidates, candidate{
			path: filepath.Join(dir, name),
			lang: subtitleLang(name),
		})
	}
	if len(candidates) == 0 {
		return "", ""
	}

	for _, want := range languages {
		for _, c := range candidates {
			// Accept regional variants ("en-US" for "en") and the
			// "-orig" suffix yt-dlp appends to original-language auto subs.
			if c.lang == want || strings.HasPrefix(c.lang, want+"-") {
				return c.path, c.lang
			}
		}
	}
	return candidates[0].path, candidates[0].lang
}

// subtitleLang extracts the language code from a "{id}.{lang}.vtt" filename.
func subtitleLang(name string) string {
	parts := strings.Split(strings.TrimSuffix(name, ".vtt"), ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-1]
}
