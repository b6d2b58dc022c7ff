package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Workers share the handle; one connection keeps SQLite writers serialized.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_hash TEXT NOT NULL,
		source_text TEXT NOT NULL,
		model TEXT NOT NULL,
		prompt_hash TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_hash, model, prompt_hash)
	);

	-- batch_runs keeps one row per batch with its final statistics
	CREATE TABLE IF NOT EXISTS batch_runs (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		source_dir TEXT NOT NULL,
		target_dir TEXT NOT NULL,
		success INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS batch_files (
		batch_id TEXT NOT NULL,
		path TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		PRIMARY KEY (batch_id, path),
		FOREIGN KEY (batch_id) REFERENCES batch_runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_hash, model, prompt_hash);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON batch_runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// MemoryKey identifies a translation memory entry. Two documents share an
// entry when their NFC-normalized text, model and prompt hash match.
type MemoryKey struct {
	SourceText string
	Model      string
	PromptHash string
}

func (k MemoryKey) sourceHash() string {
	sum := sha256.Sum256([]byte(normalizeText(k.SourceText)))
	return hex.EncodeToString(sum[:])
}

func (s *Store) GetCachedTranslation(ctx context.Context, key MemoryKey) (string, bool, error) {
	var translated string
	var invalidated bool
	hash := key.sourceHash()

	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text, invalidated FROM translation_memory WHERE source_hash = ? AND model = ? AND prompt_hash = ?`,
		hash, key.Model, key.PromptHash).Scan(&translated, &invalidated)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_hash = ? AND model = ? AND prompt_hash = ?`,
		time.Now(), hash, key.Model, key.PromptHash)

	return translated, true, err
}

func (s *Store) SaveToMemory(ctx context.Context, key MemoryKey, translated string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_hash, source_text, model, prompt_hash, translated_text, usage_count, invalidated, last_used, created_at) VALUES (?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		"mem_"+uuid.NewString(), key.sourceHash(), normalizeText(key.SourceText), key.Model, key.PromptHash, translated, now, now)
	return err
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          string
	SourceText  string
	Model       string
	UsageCount  int
	Invalidated bool
	LastUsed    time.Time
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
	return err
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns all translation memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, model, usage_count, invalidated, last_used FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.Model, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// FileRecord is the outcome of one file in a recorded batch.
type FileRecord struct {
	Path   string
	Status string
	Reason string
}

// RunRecord is one batch run. ID is assigned by RecordRun when empty.
type RunRecord struct {
	ID         string
	RunID      string
	SourceDir  string
	TargetDir  string
	Success    int
	Failed     int
	Skipped    int
	StartedAt  time.Time
	FinishedAt time.Time
	Files      []FileRecord
}

// RecordRun stores a batch and its per-file outcomes in one transaction and
// returns the batch ID.
func (s *Store) RecordRun(ctx context.Context, run RunRecord) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batch_runs (id, run_id, source_dir, target_dir, success, failed, skipped, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RunID, run.SourceDir, run.TargetDir, run.Success, run.Failed, run.Skipped, run.StartedAt, run.FinishedAt)
	if err != nil {
		return "", fmt.Errorf("insert batch run: %w", err)
	}

	for _, f := range run.Files {
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO batch_files (batch_id, path, status, reason) VALUES (?, ?, ?, ?)`,
			run.ID, f.Path, f.Status, f.Reason)
		if err != nil {
			return "", fmt.Errorf("insert batch file %s: %w", f.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs first, without their files. A
// limit of zero or less returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT id, run_id, source_dir, target_dir, success, failed, skipped, started_at, finished_at FROM batch_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.RunID, &r.SourceDir, &r.TargetDir, &r.Success, &r.Failed, &r.Skipped, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunFiles returns the per-file outcomes of one batch ordered by path.
func (s *Store) RunFiles(ctx context.Context, batchID string) ([]FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, status, COALESCE(reason, '') FROM batch_files WHERE batch_id = ? ORDER BY path`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Path, &f.Status, &f.Reason); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
