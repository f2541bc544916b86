package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	gogithub "github.com/google/go-github/v69/github"
)

// fakeChecker wires the GitHub client to a local server and replaces
// the binary version probe.
func fakeChecker(t *testing.T, installed string, versionErr error, latestTag string, apiStatus int) *Checker {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/yt-dlp/yt-dlp/releases/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if apiStatus != http.StatusOK {
			w.WriteHeader(apiStatus)
			return
		}
		fmt.Fprintf(w, `{"tag_name": %q, "html_url": "https://github.com/yt-dlp/yt-dlp/releases/tag/%s"}`,
			latestTag, latestTag)
	}))
	t.Cleanup(srv.Close)

	c := NewChecker("/usr/bin/yt-dlp", srv.Client(), slog.Default())
	base, _ := url.Parse(srv.URL + "/")
	c.gh = gogithub.NewClient(srv.Client())
	c.gh.BaseURL = base
	c.version = func(ctx context.Context) (string, error) {
		return installed, versionErr
	}
	return c
}

func TestCheck_UpToDate(t *testing.T) {
	c := fakeChecker(t, "2024.08.06", nil, "2024.08.06", http.StatusOK)

	st := c.Check(context.Background())
	if st.CheckFailed {
		t.Fatal("check should succeed")
	}
	if !st.UpToDate {
		t.Errorf("UpToDate = false, status %+v", st)
	}
}

func TestCheck_UpdateAvailable(t *testing.T) {
	c := fakeChecker(t, "2024.05.01", nil, "2024.08.06", http.StatusOK)

	st := c.Check(context.Background())
	if st.UpToDate {
		t.Error("update should be flagged")
	}
	if st.Latest != "2024.08.06" || st.Installed != "2024.05.01" {
		t.Errorf("status = %+v", st)
	}
	if st.ReleaseURL == "" {
		t.Error("ReleaseURL not set")
	}
}

func TestCheck_BinaryMissing(t *testing.T) {
	c := fakeChecker(t, "", errors.New("exec: not found"), "2024.08.06", http.StatusOK)

	st := c.Check(context.Background())
	if !st.CheckFailed {
		t.Error("CheckFailed should be set when the binary probe fails")
	}
}

func TestCheck_APIFailureIsNonFatal(t *testing.T) {
	c := fakeChecker(t, "2024.08.06", nil, "", http.StatusInternalServerError)

	st := c.Check(context.Background())
	if !st.CheckFailed {
		t.Error("CheckFailed should be set on API errors")
	}
	if st.Installed != "2024.08.06" {
		t.Errorf("Installed = %q, the local probe result should survive", st.Installed)
	}
}
