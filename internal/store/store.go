// Package store is the SQLite persistence layer: a transcript cache
// keyed by video and language, and append-only AI usage records for
// cost accounting. All public methods are safe for concurrent use
// (SQLite serializes writes).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vidscribe/vidscribe/internal/transcript"
)

// ErrNotFound indicates no cached row matched the lookup.
var ErrNotFound = errors.New("store: not found")

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing database handle and runs migrations.
// Tests pass an in-memory handle here.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transcript_cache (
		video_id   TEXT NOT NULL,
		language   TEXT NOT NULL,
		title      TEXT,
		auto       INTEGER NOT NULL,
		entries    TEXT NOT NULL,
		fetched_at TEXT NOT NULL,
		PRIMARY KEY (video_id, language)
	);
	CREATE TABLE IF NOT EXISTS ai_usage (
		id            TEXT PRIMARY KEY,
		timestamp     TEXT NOT NULL,
		request_id    TEXT NOT NULL,
		video_id      TEXT,
		operation     TEXT NOT NULL,
		model         TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ai_usage_timestamp ON ai_usage(timestamp);
	CREATE INDEX IF NOT EXISTS idx_ai_usage_video ON ai_usage(video_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CachedTranscript is a transcript cache row.
type CachedTranscript struct {
	VideoID   string
	Language  string
	Title     string
	Auto      bool
	Entries   []transcript.Entry
	FetchedAt time.Time
}

// PutTranscript inserts or replaces the cached transcript for
// (videoID, language).
func (s *Store) PutTranscript(ctx context.Context, videoID, title string, track transcript.Track) error {
	entries, err := json.Marshal(track.Entries)
	if err != nil {
		return fmt.Errorf("encode transcript entries: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO transcript_cache (video_id, language, title, auto, entries, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (video_id, language) DO UPDATE SET
			title = excluded.title,
			auto = excluded.auto,
			entries = excluded.entries,
			fetched_at = excluded.fetched_at`,
		videoID, track.Language, title, boolInt(track.Auto), string(entries),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert transcript cache: %w", err)
	}
	return nil
}

// GetTranscript returns the cached transcript for (videoID, language),
// or ErrNotFound.
func (s *Store) GetTranscript(ctx context.Context, videoID, language string) (*CachedTranscript, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT language, title, auto, entries, fetched_at
		 FROM transcript_cache WHERE video_id = ? AND language = ?`,
		videoID, language,
	)

	var (
		ct      CachedTranscript
		auto    int
		entries string
		fetched string
	)
	if err := row.Scan(&ct.Language, &ct.Title, &auto, &entries, &fetched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query transcript cache: %w", err)
	}

	ct.VideoID = videoID
	ct.Auto = auto != 0
	if err := json.Unmarshal([]byte(entries), &ct.Entries); err != nil {
		return nil, fmt.Errorf("decode transcript entries: %w", err)
	}
	ct.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
	return &ct, nil
}

// AnyTranscript returns any cached transcript for videoID regardless
// of language, preferring manual tracks, or ErrNotFound.
func (s *Store) AnyTranscript(ctx context.Context, videoID string) (*CachedTranscript, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT language, title, auto, entries, fetched_at
		 FROM transcript_cache WHERE video_id = ?
		 ORDER BY auto ASC, fetched_at DESC LIMIT 1`,
		videoID,
	)

	var (
		ct      CachedTranscript
		auto    int
		entries string
		fetched string
	)
	if err := row.Scan(&ct.Language, &ct.Title, &auto, &entries, &fetched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query transcript cache: %w", err)
	}

	ct.VideoID = videoID
	ct.Auto = auto != 0
	if err := json.Unmarshal([]byte(entries), &ct.Entries); err != nil {
		return nil, fmt.Errorf("decode transcript entries: %w", err)
	}
	ct.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
	return &ct, nil
}

// PurgeTranscripts deletes cache rows fetched before cutoff and
// returns the number removed.
func (s *Store) PurgeTranscripts(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transcript_cache WHERE fetched_at < ?`,
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("purge transcript cache: %w", err)
	}
	return res.RowsAffected()
}

// UsageRecord is one AI generation call's token usage.
type UsageRecord struct {
	ID           string
	Timestamp    time.Time
	RequestID    string
	VideoID      string
	Operation    string // "summary", "translate", "topics"
	Model        string
	InputTokens  int
	OutputTokens int
}

// UsageSummary holds aggregated usage totals.
type UsageSummary struct {
	TotalRecords      int
	TotalInputTokens  int64
	TotalOutputTokens int64
}

// RecordUsage persists a usage record. If rec.ID is empty, a UUIDv7 is
// generated.
func (s *Store) RecordUsage(ctx context.Context, rec UsageRecord) error {
	if rec.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate usage record ID: %w", err)
		}
		rec.ID = id.String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_usage
			(id, timestamp, request_id, video_id, operation, model, input_tokens, output_tokens)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.UTC().Format(time.RFC3339),
		rec.RequestID,
		rec.VideoID,
		rec.Operation,
		rec.Model,
		rec.InputTokens,
		rec.OutputTokens,
	)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

// UsageSummary returns aggregated totals for records within [start, end).
func (s *Store) UsageSummary(ctx context.Context, start, end time.Time) (*UsageSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
		 FROM ai_usage WHERE timestamp >= ? AND timestamp < ?`,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	)

	var sum UsageSummary
	if err := row.Scan(&sum.TotalRecords, &sum.TotalInputTokens, &sum.TotalOutputTokens); err != nil {
		return nil, fmt.Errorf("query usage summary: %w", err)
	}
	return &sum, nil
}

// UsageByOperation returns per-operation aggregated totals for records
// within [start, end).
func (s *Store) UsageByOperation(ctx context.Context, start, end time.Time) (map[string]*UsageSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT operation, COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
		 FROM ai_usage
		 WHERE timestamp >= ? AND timestamp < ?
		 GROUP BY operation
		 ORDER BY SUM(input_tokens) DESC`,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("query usage by operation: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*UsageSummary)
	for rows.Next() {
		var key string
		var sum UsageSummary
		if err := rows.Scan(&key, &sum.TotalRecords, &sum.TotalInputTokens, &sum.TotalOutputTokens); err != nil {
			return nil, fmt.Errorf("scan usage by operation: %w", err)
		}
		result[key] = &sum
	}
	return result, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
