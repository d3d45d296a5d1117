package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aluiziolira/go-news-classify/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS titles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	category TEXT NOT NULL,
	title TEXT NOT NULL,
	scraped_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_titles_category ON titles(category);
CREATE INDEX IF NOT EXISTS idx_titles_run ON titles(run_id);
`

// SQLiteWriter stores records in a local SQLite database.
// Each Write is committed in a single transaction.
type SQLiteWriter struct {
	db     *sql.DB
	path   string
	runID  string
	mu     sync.Mutex
	closed bool
}

// NewSQLiteWriter opens or creates the database at path.
func NewSQLiteWriter(path, runID string) (*SQLiteWriter, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &SQLiteWriter{db: db, path: path, runID: runID}, nil
}

// Write inserts records in one transaction.
func (sw *SQLiteWriter) Write(records []models.Record) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closed {
		return ErrWriterClosed
	}
	if len(records) == 0 {
		return nil
	}

	ctx := context.Background()
	tx, err := sw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO titles (run_id, category, title) VALUES (?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare sqlite insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, sw.runID, rec.Category, rec.Title); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert sqlite record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite transaction: %w", err)
	}
	return nil
}

// Count returns the number of stored rows, optionally limited to one category.
func (sw *SQLiteWriter) Count(category string) (int, error) {
	query := "SELECT COUNT(*) FROM titles"
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	var n int
	if err := sw.db.QueryRowContext(context.Background(), query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sqlite rows: %w", err)
	}
	return n, nil
}

// Close closes the database. Further calls are no-ops.
func (sw *SQLiteWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closed {
		return nil
	}
	sw.closed = true
	return sw.db.Close()
}

// Validate ensures the database file exists and is not empty.
func (sw *SQLiteWriter) Validate() error {
	info, err := os.Stat(sw.path)
	if err != nil {
		return fmt.Errorf("stat sqlite file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("sqlite file is empty")
	}
	return nil
}
