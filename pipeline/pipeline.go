// Package pipeline persists crawled titles to the configured sink.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-news-classify/config"
	"github.com/aluiziolira/go-news-classify/models"
)

var (
	// ErrPipelineClosed is returned when Record is called after Close.
	ErrPipelineClosed = errors.New("pipeline: closed")
	// ErrWriterClosed is returned by a writer used after Close.
	ErrWriterClosed = errors.New("pipeline: writer closed")
)

// OutputWriter defines the interface for data output.
// Write must make the records durable before it returns.
type OutputWriter interface {
	Write(records []models.Record) error
	Close() error
	Validate() error
}

// Open builds the writer selected by cfg.OutputFormat.
func Open(ctx context.Context, cfg *config.Config, runID string) (OutputWriter, error) {
	switch cfg.OutputFormat {
	case config.FormatCSV, "":
		return NewCSVWriter(cfg.OutputFile)
	case config.FormatJSON:
		return NewJSONWriter(cfg.OutputFile)
	case config.FormatDual:
		return NewDualWriter(cfg.OutputFile, jsonCompanion(cfg.OutputFile))
	case config.FormatSQLite:
		return NewSQLiteWriter(cfg.OutputFile, runID)
	case config.FormatPostgres:
		return NewPostgresWriter(ctx, cfg.PostgresDSN, runID)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidFormat, cfg.OutputFormat)
	}
}

// Pipeline turns a page of titles into records, optionally drops recent
// duplicates and hands them to the writer in one durable write.
type Pipeline struct {
	writer OutputWriter
	seen   *lru.Cache[string, struct{}]

	metrics metrics

	mu     sync.Mutex
	closed bool
}

// NewPipeline wraps writer. A positive dedupeSize enables a duplicate window
// over the last dedupeSize (category, title) pairs; zero keeps every row.
func NewPipeline(writer OutputWriter, dedupeSize int) (*Pipeline, error) {
	if writer == nil {
		return nil, errors.New("pipeline: writer is required")
	}
	p := &Pipeline{
		writer:  writer,
		metrics: newMetrics(),
	}
	if dedupeSize > 0 {
		cache, err := lru.New[string, struct{}](dedupeSize)
		if err != nil {
			return nil, fmt.Errorf("create dedupe cache: %w", err)
		}
		p.seen = cache
	}
	return p, nil
}

// Record writes the titles of one page under category and returns how many rows landed.
func (p *Pipeline) Record(category string, titles []string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPipelineClosed
	}
	if len(titles) == 0 {
		return 0, nil
	}

	records := make([]models.Record, 0, len(titles))
	for _, title := range titles {
		if p.seen != nil {
			if found, _ := p.seen.ContainsOrAdd(category+"\x00"+title, struct{}{}); found {
				p.metrics.addSkipped("duplicate_title")
				continue
			}
		}
		records = append(records, models.Record{Category: category, Title: title})
	}
	if len(records) == 0 {
		return 0, nil
	}

	if err := p.writer.Write(records); err != nil {
		p.metrics.addSkipped("write_error")
		return 0, fmt.Errorf("write records: %w", err)
	}
	p.metrics.addWritten(len(records))
	return len(records), nil
}

// Close closes the writer. Further calls are no-ops.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// StartMetricsReporting emits periodic progress logs until ctx is done.
func (p *Pipeline) StartMetricsReporting(ctx context.Context, logger *slog.Logger, interval time.Duration) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m := p.GetMetrics()
				logger.Info("pipeline progress",
					slog.Int64("written_rows", m["written_rows"].(int64)),
					slog.Any("skipped", m["skipped"]),
				)
			case <-ctx.Done():
				return
			}
		}
	}()
}

type metrics struct {
	mu      sync.Mutex
	written int64
	skipped map[string]int
}

func newMetrics() metrics {
	return metrics{
		skipped: make(map[string]int),
	}
}

func (m *metrics) addWritten(n int) {
	m.mu.Lock()
	m.written += int64(n)
	m.mu.Unlock()
}

func (m *metrics) addSkipped(kind string) {
	m.mu.Lock()
	m.skipped[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copySkipped := make(map[string]int, len(m.skipped))
	for k, v := range m.skipped {
		copySkipped[k] = v
	}

	return map[string]interface{}{
		"written_rows": m.written,
		"skipped":      copySkipped,
	}
}
