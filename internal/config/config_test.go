package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindConfig_Explicit(t *testing.T) {
	// Create a temp config file
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 9999\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestFindConfig_SearchPath(t *testing.T) {
	// When no config exists anywhere, should error
	// (Save and restore CWD to avoid finding the repo's config.yaml)
	dir := t.TempDir()
	orig, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(orig)

	_, err := FindConfig("")
	if err == nil {
		t.Fatal("FindConfig(\"\") with no config files should error")
	}
}

func TestFindConfig_CWD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 8080\n"), 0600)

	orig, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(orig)

	got, err := FindConfig("")
	if err != nil {
		t.Fatalf("FindConfig(\"\") error: %v", err)
	}
	if got != "config.yaml" {
		t.Errorf("FindConfig(\"\") = %q, want %q", got, "config.yaml")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("gemini:\n  api_key: ${VIDSCRIBE_TEST_KEY}\n"), 0600)
	os.Setenv("VIDSCRIBE_TEST_KEY", "secret123")
	defer os.Unsetenv("VIDSCRIBE_TEST_KEY")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Gemini.APIKey != "secret123" {
		t.Errorf("api_key = %q, want %q", cfg.Gemini.APIKey, "secret123")
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 9000\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Listen.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Listen.Port)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash-exp" {
		t.Errorf("model = %q, want default", cfg.Gemini.Model)
	}
	if cfg.Gemini.RetryCount != 3 {
		t.Errorf("retry_count = %d, want 3", cfg.Gemini.RetryCount)
	}
	if got := cfg.Transcript.PreferManualOrDefault(); !got {
		t.Error("prefer_manual should default to true")
	}
	if len(cfg.Transcript.Languages) != 2 || cfg.Transcript.Languages[0] != "ko" {
		t.Errorf("languages = %v, want [ko en]", cfg.Transcript.Languages)
	}
}

func TestLoad_APIKeyEnvFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("log_level: debug\n"), 0600)
	os.Setenv("GEMINI_API_KEY", "from-env")
	defer os.Unsetenv("GEMINI_API_KEY")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Errorf("api_key = %q, want env fallback", cfg.Gemini.APIKey)
	}
}

func TestLoad_CacheTTLHours(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("transcript:\n  cache_ttl_hours: 72\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Transcript.CacheTTLHours != 72 {
		t.Errorf("cache_ttl_hours = %d, want 72", cfg.Transcript.CacheTTLHours)
	}
	if Default().Transcript.CacheTTLHours != 0 {
		t.Error("cache_ttl_hours should default to 0 (never expire)")
	}
}

func TestLoad_PreferManualExplicitFalse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("transcript:\n  prefer_manual: false\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Transcript.PreferManualOrDefault() {
		t.Error("prefer_manual: false should survive loading")
	}
}
