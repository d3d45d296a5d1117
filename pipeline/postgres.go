package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aluiziolira/go-news-classify/models"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS news_titles (
    id BIGSERIAL PRIMARY KEY,
    run_id TEXT NOT NULL,
    category TEXT NOT NULL,
    title TEXT NOT NULL,
    scraped_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS news_titles_category_idx ON news_titles (category);`

// PostgresWriter stores records in PostgreSQL, one batch per Write.
type PostgresWriter struct {
	pool    *pgxpool.Pool
	runID   string
	timeout time.Duration
	mu      sync.Mutex
	closed  bool
}

// NewPostgresWriter connects to dsn and creates the table if needed.
func NewPostgresWriter(ctx context.Context, dsn, runID string) (*PostgresWriter, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run schema: %w", err)
	}
	return &PostgresWriter{pool: pool, runID: runID, timeout: 30 * time.Second}, nil
}

// Write sends all records as one batch and checks every insert.
func (pw *PostgresWriter) Write(records []models.Record) error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.closed {
		return ErrWriterClosed
	}
	if len(records) == 0 {
		return nil
	}

	// Detached from the run context so rows of the last page still land on shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), pw.timeout)
	defer cancel()

	b := &pgx.Batch{}
	for _, rec := range records {
		b.Queue(`INSERT INTO news_titles (run_id, category, title) VALUES ($1, $2, $3)`,
			pw.runID, rec.Category, rec.Title)
	}
	br := pw.pool.SendBatch(ctx, b)
	for range records {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert postgres record: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close postgres batch: %w", err)
	}
	return nil
}

// Close releases the pool. Further calls are no-ops.
func (pw *PostgresWriter) Close() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.closed {
		return nil
	}
	pw.closed = true
	pw.pool.Close()
	return nil
}

// Validate checks the connection is still usable.
func (pw *PostgresWriter) Validate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pw.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}
