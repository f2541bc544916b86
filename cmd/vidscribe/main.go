// Vidscribe is a YouTube transcript scraping service.
//
// It wraps yt-dlp for metadata and subtitle retrieval, optionally
// enriches transcripts through the Gemini API (summaries, translation,
// key topics), and serializes results to text, JSON, XML, Markdown, or
// HTML. Configuration is loaded from a single YAML file discovered
// automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	vidscribe serve              Start the API server
//	vidscribe scrape <url>       Scrape a video or playlist to a file
//	vidscribe version            Print version and build information
//	vidscribe -o json version    Output version information as JSON
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/vidscribe/vidscribe/internal/api"
	"github.com/vidscribe/vidscribe/internal/buildinfo"
	"github.com/vidscribe/vidscribe/internal/config"
	"github.com/vidscribe/vidscribe/internal/gemini"
	"github.com/vidscribe/vidscribe/internal/httpkit"
	"github.com/vidscribe/vidscribe/internal/scrape"
	"github.com/vidscribe/vidscribe/internal/store"
	"github.com/vidscribe/vidscribe/internal/transcript"
	"github.com/vidscribe/vidscribe/internal/updater"
	"github.com/vidscribe/vidscribe/internal/youtube"
)

// main is intentionally minimal. It constructs the OS-level environment
// (context, stdio, argv) and delegates immediately to [run]. This keeps
// os.Exit, os.Stdout, and os.Args out of the application logic so that
// the full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point for the vidscribe command. All OS-level
// dependencies are injected as parameters so tests can drive the full
// lifecycle. Arguments are parsed by hand: the flag package relies on
// package-level globals (flag.CommandLine), which makes it impossible
// to call run() concurrently from tests, and our argument surface is
// small enough that manual parsing stays clearer than a CLI framework.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string // "text" (default) or "json"
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++ // skip the value
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-o="):
			outputFmt = strings.TrimPrefix(args[i], "-o=")
		case strings.HasPrefix(args[i], "--output="):
			outputFmt = strings.TrimPrefix(args[i], "--output=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "scrape":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: vidscribe scrape <url> [format]")
		}
		return runScrape(ctx, stdout, configPath, cmdArgs)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// printUsage writes the top-level help text to w.
func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Vidscribe - YouTube Transcript Scraping Service")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: vidscribe [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve                Start the API server")
	fmt.Fprintln(w, "  scrape <url> [fmt]   Scrape one video or playlist to a file")
	fmt.Fprintln(w, "  version              Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>    Path to config file (default: auto-discover)")
	fmt.Fprintln(w, "  -o, --output fmt  Output format: text (default) or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  ./config.yaml, ~/.config/vidscribe/config.yaml, /etc/vidscribe/config.yaml")
	return nil
}

// runVersion prints build metadata in the requested output format.
func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	// Print fields in a stable order for human readability.
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// components bundles everything a subcommand needs after config load.
type components struct {
	cfg      *config.Config
	yt       *youtube.Client
	subs     *transcript.Fetcher
	ai       *gemini.Client
	db       *store.Store
	pipeline *scrape.Service
}

// buildComponents wires the pipeline from config. The returned store
// (when non-nil) must be closed by the caller.
func buildComponents(cfg *config.Config, logger *slog.Logger) (*components, error) {
	timeout := time.Duration(cfg.YouTube.TimeoutSec) * time.Second

	yt := youtube.New(youtube.Config{
		YtDlpPath:   cfg.YouTube.YtDlpPath,
		CookiesFile: cfg.YouTube.CookiesFile,
		Timeout:     timeout,
	}, logger)
	if !yt.Available() {
		logger.Warn("yt-dlp binary not found, scraping will fail until it is installed")
	}

	subs := transcript.NewFetcher(transcript.Config{
		YtDlpPath:   yt.BinaryPath(),
		CookiesFile: cfg.YouTube.CookiesFile,
		Timeout:     timeout,
	}, logger)

	ai := gemini.New(gemini.Config{
		APIKey:        cfg.Gemini.APIKey,
		Model:         cfg.Gemini.Model,
		BaseURL:       cfg.Gemini.BaseURL,
		RetryCount:    cfg.Gemini.RetryCount,
		RetryDelay:    time.Duration(cfg.Gemini.RetryDelaySec) * time.Second,
		MaxInputChars: cfg.Gemini.MaxInputChars,
	}, logger, gemini.WithHTTPClient(newHTTPClient(2*time.Minute, logger)))
	if !ai.Available() {
		logger.Info("gemini API key not configured, AI features disabled")
	}

	var db *store.Store
	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		var err error
		db, err = store.Open(filepath.Join(cfg.DataDir, "vidscribe.db"))
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
	}

	pipeline := scrape.NewService(scrape.Config{
		Languages:    cfg.Transcript.Languages,
		PreferManual: cfg.Transcript.PreferManualOrDefault(),
		OutputDir:    cfg.Output.Dir,
		CacheTTL:     time.Duration(cfg.Transcript.CacheTTLHours) * time.Hour,
	}, yt, subs, ai, db, logger)

	return &components{cfg: cfg, yt: yt, subs: subs, ai: ai, db: db, pipeline: pipeline}, nil
}

// runScrape handles the "vidscribe scrape <url> [format]" subcommand:
// a one-shot scrape of a video or playlist written to the output dir.
func runScrape(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	logger := newLogger(stdout, slog.LevelInfo, "text")

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Info("config loaded", "path", cfgPath)

	comp, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	if comp.db != nil {
		defer comp.db.Close()
	}

	rawURL := args[0]
	format := cfg.Output.DefaultFormat
	if len(args) > 1 {
		format = args[1]
	}

	// Wire token accounting into the store for CLI runs too.
	if comp.db != nil && comp.ai.Available() {
		comp.ai.OnUsage = recordUsage(comp.db, logger)
	}

	req := scrape.Request{
		Summarize:     comp.ai.Available(),
		ExtractTopics: comp.ai.Available(),
		PromptLang:    firstLanguage(cfg.Transcript.Languages),
		Format:        format,
	}

	kind, _ := scrape.ProcessURL(rawURL)
	switch kind {
	case scrape.KindPlaylist:
		result, err := comp.pipeline.ScrapePlaylist(ctx, scrape.PlaylistRequest{
			URL:   rawURL,
			Video: req,
		}, func(p scrape.Progress) {
			if p.Err != nil {
				fmt.Fprintf(stdout, "[%d/%d] FAILED %s: %v\n", p.Index, p.Total, p.Title, p.Err)
			} else {
				fmt.Fprintf(stdout, "[%d/%d] %s\n", p.Index, p.Total, p.Title)
			}
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Scraped %d videos (%d failed)\n", len(result.Results), len(result.Failures))
		return nil

	case scrape.KindVideo:
		req.URL = rawURL
		res, err := comp.pipeline.Scrape(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Scraped %q to %s\n", res.Meta.Title, res.OutputPath)
		return nil

	default:
		return fmt.Errorf("not a YouTube video or playlist URL: %s", rawURL)
	}
}

// runServe handles the "vidscribe serve" subcommand. It is the primary
// operating mode: loads config, opens the database, wires the pipeline,
// starts the API server, and blocks until a shutdown signal arrives.
func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	logger := newLogger(stdout, slog.LevelInfo, "text")
	logger.Info("starting vidscribe", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "built", buildinfo.BuildTime)

	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Reconfigure the logger now that we know the desired level and
	// format. The initial Info-level text logger covers only the
	// startup banner.
	{
		level := slog.LevelInfo
		if cfg.LogLevel != "" {
			level, _ = config.ParseLogLevel(cfg.LogLevel)
		}
		logger = newLogger(stdout, level, cfg.LogFormat)
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"languages", cfg.Transcript.Languages,
		"ai_enabled", cfg.Gemini.APIKey != "",
	)

	comp, err := buildComponents(cfg, logger)
	if err != nil {
		return err
	}
	if comp.db != nil {
		defer comp.db.Close()
	}

	server := api.NewServer(cfg.Listen.Address, cfg.Listen.Port, comp.pipeline, comp.yt, comp.subs, comp.ai, logger)
	if comp.db != nil {
		server.SetUsageStore(comp.db)
		comp.ai.OnUsage = recordUsage(comp.db, logger)
	}

	// Release check is informational; log it once at startup and let
	// /version serve the cached status.
	if comp.yt.Available() {
		checker := updater.NewChecker(comp.yt.BinaryPath(), newHTTPClient(15*time.Second, logger), logger)
		server.SetChecker(checker)
		go func() {
			checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			st := checker.Check(checkCtx)
			if st.UpToDate {
				logger.Info("yt-dlp is up to date", "version", st.Installed)
			}
		}()
	}

	// --- Signal handling and graceful shutdown ---
	// NotifyContext wraps the parent context so that SIGINT/SIGTERM
	// cancellation flows through the same ctx used by all components.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if ttl := time.Duration(cfg.Transcript.CacheTTLHours) * time.Hour; comp.db != nil && ttl > 0 {
		go purgeExpiredTranscripts(ctx, comp.db, ttl, logger)
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		_ = server.Shutdown(context.Background())
	}()

	// Start blocks until the server is shut down (via context
	// cancellation or fatal error).
	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("vidscribe stopped")
	return nil
}

// newLogger creates a structured logger that writes to w at the given
// level and format. Format must be "text" or "json"; any other value
// defaults to text.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// newHTTPClient builds an outbound client on the shared transport:
// bounded timeout plus retry of transient connection errors.
func newHTTPClient(timeout time.Duration, logger *slog.Logger) *http.Client {
	return httpkit.NewClient(
		httpkit.WithTimeout(timeout),
		httpkit.WithRetry(2, time.Second),
		httpkit.WithLogger(logger),
	)
}

// recordUsage builds the hook that persists AI token usage. The request
// and video ids arrive on the Usage value when the call site attached
// them to its context.
func recordUsage(db *store.Store, logger *slog.Logger) func(gemini.Usage) {
	return func(u gemini.Usage) {
		rec := store.UsageRecord{
			RequestID:    u.RequestID,
			VideoID:      u.VideoID,
			Operation:    u.Operation,
			Model:        u.Model,
			InputTokens:  u.InputTokens,
			OutputTokens: u.OutputTokens,
		}
		if err := db.RecordUsage(context.Background(), rec); err != nil {
			logger.Warn("usage record failed", "error", err)
		}
	}
}

// purgeExpiredTranscripts deletes cached transcripts older than ttl,
// once at startup and then hourly, until ctx is cancelled.
func purgeExpiredTranscripts(ctx context.Context, db *store.Store, ttl time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		n, err := db.PurgeTranscripts(ctx, time.Now().Add(-ttl))
		if err != nil {
			logger.Warn("transcript cache purge failed", "error", err)
		} else if n > 0 {
			logger.Info("purged expired cached transcripts", "rows", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// loadConfig resolves and loads the config file. When no file exists
// anywhere on the search path and none was requested explicitly, the
// built-in defaults are used (environment variables still apply).
func loadConfig(explicit string) (*config.Config, string, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		if explicit == "" {
			return config.Default(), "(defaults)", nil
		}
		return nil, "", err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfgPath, fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	return cfg, cfgPath, nil
}

// firstLanguage returns the first configured language, defaulting to "ko".
func firstLanguage(langs []string) string {
	if len(langs) > 0 {
		return langs[0]
	}
	return "ko"
}
