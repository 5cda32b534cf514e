package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded processing run.
type Run struct {
	ID                 string
	Filename           string
	Mode               string
	TotalEvents        int
	LowConfidenceCount int
	TextLength         int
	ProcessedAt        time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS processing_runs (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mode TEXT NOT NULL,
	total_events INTEGER NOT NULL,
	low_confidence_count INTEGER NOT NULL,
	text_length INTEGER NOT NULL,
	processed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processing_runs_processed_at
	ON processing_runs (processed_at DESC);
`

// Store keeps a history of processing runs in a local SQLite file. It is an
// operator convenience, never consulted by the pipeline itself.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db, log: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processing_runs
		 (id, filename, mode, total_events, low_confidence_count, text_length, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Filename, run.Mode,
		run.TotalEvents, run.LowConfidenceCount, run.TextLength,
		run.ProcessedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	s.log.Debug("history.record.ok", "id", run.ID, "filename", run.Filename)
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, mode, total_events, low_confidence_count, text_length, processed_at
		 FROM processing_runs ORDER BY processed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var at string
		if err := rows.Scan(&r.ID, &r.Filename, &r.Mode, &r.TotalEvents, &r.LowConfidenceCount, &r.TextLength, &at); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339, at); perr == nil {
			r.ProcessedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
