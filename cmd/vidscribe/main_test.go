package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestRun_Version(t *testing.T) {
	var stdout, stderr strings.Builder

	if err := run(context.Background(), &stdout, &stderr, []string{"version"}); err != nil {
		t.Fatalf("run version: %v", err)
	}
	if !strings.Contains(stdout.String(), "vidscribe") {
		t.Errorf("version output missing program name: %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "go_version") {
		t.Errorf("version output missing go_version: %q", stdout.String())
	}
}

func TestRun_VersionJSON(t *testing.T) {
	var stdout, stderr strings.Builder

	if err := run(context.Background(), &stdout, &stderr, []string{"-o", "json", "version"}); err != nil {
		t.Fatalf("run version -o json: %v", err)
	}

	var info map[string]string
	if err := json.Unmarshal([]byte(stdout.String()), &info); err != nil {
		t.Fatalf("version JSON output did not parse: %v\n%s", err, stdout.String())
	}
	if info["version"] == "" {
		t.Error("version field missing from JSON output")
	}
}

func TestRun_NoCommandPrintsUsage(t *testing.T) {
	var stdout, stderr strings.Builder

	if err := run(context.Background(), &stdout, &stderr, nil); err != nil {
		t.Fatalf("run with no args: %v", err)
	}
	if !strings.Contains(stdout.String(), "Usage:") {
		t.Errorf("expected usage text, got %q", stdout.String())
	}
}

func TestRun_HelpFlag(t *testing.T) {
	var stdout, stderr strings.Builder

	if err := run(context.Background(), &stdout, &stderr, []string{"-h"}); err != nil {
		t.Fatalf("run -h: %v", err)
	}
	if !strings.Contains(stdout.String(), "scrape <url>") {
		t.Errorf("help output missing scrape command: %q", stdout.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr strings.Builder

	err := run(context.Background(), &stdout, &stderr, []string{"frobnicate"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("expected unknown command error, got %v", err)
	}
}

func TestRun_UnknownFlag(t *testing.T) {
	var stdout, stderr strings.Builder

	err := run(context.Background(), &stdout, &stderr, []string{"-bogus"})
	if err == nil || !strings.Contains(err.Error(), "unknown flag") {
		t.Errorf("expected unknown flag error, got %v", err)
	}
}

func TestRun_BadOutputFormat(t *testing.T) {
	var stdout, stderr strings.Builder

	err := run(context.Background(), &stdout, &stderr, []string{"-o", "yaml", "version"})
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("expected output format error, got %v", err)
	}
}

func TestRun_ScrapeRequiresURL(t *testing.T) {
	var stdout, stderr strings.Builder

	err := run(context.Background(), &stdout, &stderr, []string{"scrape"})
	if err == nil || !strings.Contains(err.Error(), "usage: vidscribe scrape") {
		t.Errorf("expected scrape usage error, got %v", err)
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := newHTTPClient(42*time.Second, slog.Default())
	if c.Timeout != 42*time.Second {
		t.Errorf("Timeout = %v, want 42s", c.Timeout)
	}
	if c.Transport == nil {
		t.Error("client should carry the shared transport chain")
	}
}

func TestRun_ConfigFlagMustExist(t *testing.T) {
	var stdout, stderr strings.Builder

	err := run(context.Background(), &stdout, &stderr, []string{"-config", "/nonexistent/config.yaml", "serve"})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("expected config not found error, got %v", err)
	}
}
