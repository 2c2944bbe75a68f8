// Package history archives terminal job outcomes (Completed, Cancelled,
// Error) for a history view. It is a read-mostly supplement: the
// Orchestrator's own JSON persistence remains the source of truth for
// resumable pending work, this store is never consulted by the resume
// path.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"multiytdlp/internal/model"
)

// Store wraps the SQLite connection backing the history archive.
type Store struct {
	conn *sql.DB
}

// Open creates (or reuses) the history database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		output_path TEXT,
		error_message TEXT,
		recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_history_recorded_at ON history(recorded_at DESC);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Record archives job's terminal outcome. Implements orchestrator.HistoryRecorder.
func (s *Store) Record(job model.Job) {
	query := `
		INSERT INTO history (id, url, status, output_path, error_message, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			output_path = excluded.output_path,
			error_message = excluded.error_message,
			recorded_at = excluded.recorded_at
	`
	_, _ = s.conn.Exec(query, job.ID.String(), job.URL, string(job.Status), job.OutputPath, job.ErrorMsg, time.Now())
}

// Entry is one archived terminal outcome.
type Entry struct {
	ID          string
	URL         string
	Status      string
	OutputPath  string
	ErrorMsg    string
	RecordedAt  time.Time
}

// List returns up to limit most-recently-recorded entries. A non-positive
// limit returns every entry (SQLite treats LIMIT 0 as "no rows", so it is
// translated to -1, SQLite's "no limit" sentinel).
func (s *Store) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.conn.Query(`
		SELECT id, url, status, COALESCE(output_path,''), COALESCE(error_message,''), recorded_at
		FROM history ORDER BY recorded_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.URL, &e.Status, &e.OutputPath, &e.ErrorMsg, &e.RecordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every archived entry.
func (s *Store) Clear() error {
	_, err := s.conn.Exec(`DELETE FROM history`)
	return err
}
