// Package updater checks the installed yt-dlp binary against the
// latest upstream GitHub release. The check is informational only and
// must never block or fail startup.
package updater

import (
	"context"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"

	gogithub "github.com/google/go-github/v69/github"
)

const (
	releaseOwner = "yt-dlp"
	releaseRepo  = "yt-dlp"
)

// Status is the result of a release check.
type Status struct {
	Installed   string `json:"installed"`
	Latest      string `json:"latest,omitempty"`
	UpToDate    bool   `json:"up_to_date"`
	CheckFailed bool   `json:"check_failed,omitempty"`
	ReleaseURL  string `json:"release_url,omitempty"`
}

// Checker queries the installed and latest yt-dlp versions.
type Checker struct {
	gh        *gogithub.Client
	ytdlpPath string
	logger    *slog.Logger

	// version runs the binary; replaceable in tests.
	version func(ctx context.Context) (string, error)
}

// NewChecker builds a checker for the yt-dlp binary at ytdlpPath.
// httpClient may be nil for the default transport.
func NewChecker(ytdlpPath string, httpClient *http.Client, logger *slog.Logger) *Checker {
	c := &Checker{
		gh:        gogithub.NewClient(httpClient),
		ytdlpPath: ytdlpPath,
		logger:    logger,
	}
	c.version = c.installedVersion
	return c
}

// Check compares the installed version to the latest release. Failures
// are folded into the Status, never returned.
func (c *Checker) Check(ctx context.Context) Status {
	st := Status{}

	installed, err := c.version(ctx)
	if err != nil {
		c.logger.Warn("yt-dlp version check failed", "error", err)
		st.CheckFailed = true
		return st
	}
	st.Installed = installed

	rel, resp, err := c.gh.Repositories.GetLatestRelease(ctx, releaseOwner, releaseRepo)
	if err != nil {
		c.logger.Warn("yt-dlp release lookup failed", "error", err)
		st.CheckFailed = true
		return st
	}
	checkRateLimit(resp, c.logger)

	st.Latest = strings.TrimSpace(rel.GetTagName())
	st.ReleaseURL = rel.GetHTMLURL()
	st.UpToDate = st.Latest != "" && st.Installed == st.Latest

	if !st.UpToDate {
		c.logger.Info("yt-dlp update available",
			"installed", st.Installed,
			"latest", st.Latest,
		)
	}
	return st
}

// installedVersion runs `yt-dlp --version` and returns the trimmed
// output. yt-dlp versions are date-tagged (e.g. "2024.08.06") and the
// release tag matches the version string exactly.
func (c *Checker) installedVersion(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, c.ytdlpPath, "--version").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// checkRateLimit logs a warning when remaining API calls drop below threshold.
func checkRateLimit(resp *gogithub.Response, logger *slog.Logger) {
	if resp == nil {
		return
	}
	if resp.Rate.Remaining < 100 {
		logger.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset", resp.Rate.Reset.Time,
		)
	}
}
