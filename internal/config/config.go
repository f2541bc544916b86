// Package config handles vidscribe configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/vidscribe/config.yaml, /etc/vidscribe/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "vidscribe", "config.yaml"))
	}

	paths = append(paths, "/etc/vidscribe/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all vidscribe configuration.
type Config struct {
	Listen     ListenConfig     `yaml:"listen"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Output     OutputConfig     `yaml:"output"`
	DataDir    string           `yaml:"data_dir"`
	LogLevel   string           `yaml:"log_level"`
	LogFormat  string           `yaml:"log_format"` // "text" (default) or "json"
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// YouTubeConfig defines yt-dlp invocation settings.
type YouTubeConfig struct {
	// YtDlpPath is the path to the yt-dlp binary. If empty, the binary
	// is located via exec.LookPath.
	YtDlpPath string `yaml:"yt_dlp_path"`

	// CookiesFile is an optional path to a Netscape-format cookie file
	// for accessing auth-required content.
	CookiesFile string `yaml:"cookies_file"`

	// TimeoutSec bounds a single yt-dlp invocation (default 120).
	TimeoutSec int `yaml:"timeout_sec"`
}

// TranscriptConfig defines subtitle retrieval settings.
type TranscriptConfig struct {
	// Languages is the subtitle language priority list (default ["ko", "en"]).
	Languages []string `yaml:"languages"`

	// PreferManual tries manually-created subtitle tracks before
	// auto-generated captions (default true).
	PreferManual *bool `yaml:"prefer_manual"`

	// CacheTTLHours bounds how old a cached transcript may be before it
	// is refetched; expired rows are purged periodically. Zero means
	// cached transcripts never expire (default 0).
	CacheTTLHours int `yaml:"cache_ttl_hours"`
}

// PreferManualOrDefault resolves the pointer with its default (true).
func (t TranscriptConfig) PreferManualOrDefault() bool {
	if t.PreferManual == nil {
		return true
	}
	return *t.PreferManual
}

// GeminiConfig defines the hosted LLM settings.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API. Falls back to the
	// GEMINI_API_KEY (then GOOGLE_API_KEY) environment variable when empty.
	APIKey string `yaml:"api_key"`

	// Model is the generation model name (default "gemini-2.0-flash-exp").
	Model string `yaml:"model"`

	// BaseURL overrides the OpenAI-compatible endpoint, mainly for tests.
	BaseURL string `yaml:"base_url"`

	// RetryCount is the number of attempts per request (default 3).
	RetryCount int `yaml:"retry_count"`

	// RetryDelaySec is the base backoff between attempts (default 1).
	RetryDelaySec int `yaml:"retry_delay_sec"`

	// MaxInputChars truncates prompt input text before sending (default 100000).
	MaxInputChars int `yaml:"max_input_chars"`
}

// OutputConfig defines formatted artifact settings.
type OutputConfig struct {
	// Dir is where formatted scrape artifacts are written (default "output").
	Dir string `yaml:"dir"`

	// DefaultFormat is used when a request does not name one (default "txt").
	DefaultFormat string `yaml:"default_format"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}
	cfg.applyFallbacks()

	return cfg, nil
}

// Default returns a default configuration with environment-variable
// fallbacks applied.
func Default() *Config {
	cfg := &Config{
		Listen: ListenConfig{Port: 8080},
		YouTube: YouTubeConfig{
			TimeoutSec: 120,
		},
		Transcript: TranscriptConfig{
			Languages: []string{"ko", "en"},
		},
		Gemini: GeminiConfig{
			Model:         "gemini-2.0-flash-exp",
			RetryCount:    3,
			RetryDelaySec: 1,
			MaxInputChars: 100000,
		},
		Output: OutputConfig{
			Dir:           "output",
			DefaultFormat: "txt",
		},
		DataDir: "data",
	}
	cfg.applyFallbacks()
	return cfg
}

// applyFallbacks fills settings that have environment-variable fallbacks.
func (c *Config) applyFallbacks() {
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if len(c.Transcript.Languages) == 0 {
		c.Transcript.Languages = []string{"ko", "en"}
	}
}
