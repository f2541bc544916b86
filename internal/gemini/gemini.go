// Package gemini is a thin client for the Gemini generative-language
// API, reached through its OpenAI-compatible endpoint so the go-openai
// SDK does the wire work. What this package adds is the defensive
// envelope: bounded retry with linear backoff, an input length guard,
// and a typed unavailability error so callers can degrade gracefully
// when no API key is configured.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vidscribe/vidscribe/internal/prompts"
)

// ErrUnavailable indicates no API key is configured. Handlers map it
// to 503; the scrape pipeline degrades to nil AI fields.
var ErrUnavailable = errors.New("gemini: api key not configured")

// ErrEmptyInput indicates there was no text to work with.
var ErrEmptyInput = errors.New("gemini: empty input text")

// defaultBaseURL is Gemini's OpenAI-compatible endpoint.
const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Config holds settings for the Gemini client.
type Config struct {
	// APIKey authenticates against the API. Empty means unavailable.
	APIKey string

	// Model is the generation model name (default "gemini-2.0-flash-exp").
	Model string

	// BaseURL overrides the endpoint, mainly for tests.
	BaseURL string

	// RetryCount is the number of attempts per request (default 3).
	RetryCount int

	// RetryDelay is the base backoff; attempt n waits n*RetryDelay
	// (default 1s).
	RetryDelay time.Duration

	// MaxInputChars truncates prompt input text before the request is
	// built (default 100000). Zero means the default, negative disables.
	MaxInputChars int
}

// Usage reports token consumption of a single generation call.
// RequestID and VideoID are filled from context metadata when the
// caller attached any (see [WithRequestID] and [WithVideoID]).
type Usage struct {
	Operation    string
	Model        string
	RequestID    string
	VideoID      string
	InputTokens  int
	OutputTokens int
}

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxVideoID
)

// WithRequestID attaches an API request id to the context so usage
// records can be traced back to the request that caused them.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestID, id)
}

// RequestIDFrom returns the request id attached to ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

// WithVideoID attaches the video being processed to the context.
func WithVideoID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxVideoID, id)
}

// VideoIDFrom returns the video id attached to ctx, if any.
func VideoIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxVideoID).(string)
	return id
}

// Client calls the Gemini API for summarization, translation, and
// topic extraction.
type Client struct {
	cfg    Config
	api    *openai.Client
	logger *slog.Logger

	// OnUsage, when non-nil, receives token usage after each
	// successful generation call.
	OnUsage func(Usage)
}

// Option configures a Client.
type Option func(*openai.ClientConfig)

// WithHTTPClient sets the underlying HTTP client (the shared httpkit
// client in production).
func WithHTTPClient(hc openai.HTTPDoer) Option {
	return func(c *openai.ClientConfig) { c.HTTPClient = hc }
}

// New creates a Gemini client. A client with no API key is still
// usable for Available() checks; generation calls return ErrUnavailable.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash-exp"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxInputChars == 0 {
		cfg.MaxInputChars = 100000
	}

	c := &Client{cfg: cfg, logger: logger}
	if cfg.APIKey != "" {
		apiCfg := openai.DefaultConfig(cfg.APIKey)
		apiCfg.BaseURL = cfg.BaseURL
		for _, o := range opts {
			o(&apiCfg)
		}
		c.api = openai.NewClientWithConfig(apiCfg)
	}
	return c
}

// Available reports whether generation calls can be made.
func (c *Client) Available() bool {
	return c.api != nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Summarize condenses text into at most maxPoints numbered key points.
// maxPoints is clamped to 1..10 (default 5). language selects the
// prompt variant ("ko" or anything else for English).
func (c *Client) Summarize(ctx context.Context, text string, maxPoints int, language string) (string, error) {
	text, truncated := c.truncate(text)
	if text == "" {
		return "", ErrEmptyInput
	}
	if truncated {
		c.logger.Warn("summary input truncated", "max_chars", c.cfg.MaxInputChars)
	}

	maxPoints = clamp(maxPoints, 1, 10, 5)
	return c.generate(ctx, "summary", prompts.Summary(text, maxPoints, language))
}

// Translate renders text in targetLang. sourceLang may be empty for
// auto-detection.
func (c *Client) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	text, truncated := c.truncate(text)
	if text == "" {
		return "", ErrEmptyInput
	}
	if truncated {
		c.logger.Warn("translation input truncated", "max_chars", c.cfg.MaxInputChars)
	}

	return c.generate(ctx, "translate", prompts.Translate(text, targetLang, sourceLang))
}

// Topics extracts up to numTopics short key topics from text.
// numTopics is clamped to 1..20 (default 5).
func (c *Client) Topics(ctx context.Context, text string, numTopics int, language string) ([]string, error) {
	text, truncated := c.truncate(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if truncated {
		c.logger.Warn("topics input truncated", "max_chars", c.cfg.MaxInputChars)
	}

	numTopics = clamp(numTopics, 1, 20, 5)
	out, err := c.generate(ctx, "topics", prompts.Topics(text, numTopics, language))
	if err != nil {
		return nil, err
	}

	topics := ParseTopicList(out)
	if len(topics) == 0 {
		return nil, fmt.Errorf("gemini: no topics in response %q", firstN(out, 200))
	}
	if len(topics) > numTopics {
		topics = topics[:numTopics]
	}
	return topics, nil
}

// generate sends one chat-completion request with bounded retry.
// Attempt n sleeps n*RetryDelay before retrying; context cancellation
// aborts the loop.
func (c *Client) generate(ctx context.Context, operation, prompt string) (string, error) {
	if c.api == nil {
		return "", ErrUnavailable
	}

	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.RetryCount; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(time.Duration(attempt-1) * c.cfg.RetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
			c.logger.Debug("retrying generation call",
				"operation", operation,
				"attempt", attempt,
				"last_error", lastErr,
			)
		}

		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("empty choices in response")
			continue
		}

		if c.OnUsage != nil {
			c.OnUsage(Usage{
				Operation:    operation,
				Model:        c.cfg.Model,
				RequestID:    RequestIDFrom(ctx),
				VideoID:      VideoIDFrom(ctx),
				InputTokens:  resp.Usage.PromptTokens,
				OutputTokens: resp.Usage.CompletionTokens,
			})
		}

		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	}

	return "", fmt.Errorf("gemini: %s failed after %d attempts: %w", operation, c.cfg.RetryCount, lastErr)
}

// truncate applies the input length guard. Returns the possibly
// shortened text and whether truncation happened. The cut backs off to
// a rune boundary so multibyte text never yields invalid UTF-8.
func (c *Client) truncate(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if c.cfg.MaxInputChars < 0 || len(text) <= c.cfg.MaxInputChars {
		return text, false
	}
	cut := text[:c.cfg.MaxInputChars]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut, true
}

// ParseTopicList parses a bullet-list model response into topics.
// Lines starting with "-", "•", or "*" have the marker stripped; other
// non-blank lines are taken verbatim.
func ParseTopicList(out string) []string {
	var topics []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, marker := range []string{"-", "•", "*"} {
			if strings.HasPrefix(line, marker) {
				line = strings.TrimSpace(strings.TrimPrefix(line, marker))
				break
			}
		}
		if line != "" {
			topics = append(topics, line)
		}
	}
	return topics
}

// clamp bounds v to [lo, hi], substituting def when v is zero or negative.
func clamp(v, lo, hi, def int) int {
	if v <= 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// firstN returns at most n bytes of s for error messages.
func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
