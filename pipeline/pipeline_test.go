package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aluiziolira/go-news-classify/config"
	"github.com/aluiziolira/go-news-classify/models"
)

type mockWriter struct {
	mu       sync.Mutex
	batches  [][]models.Record
	closed   int
	writeErr error
}

func (mw *mockWriter) Write(records []models.Record) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if mw.writeErr != nil {
		return mw.writeErr
	}
	copyBatch := make([]models.Record, len(records))
	copy(copyBatch, records)
	mw.batches = append(mw.batches, copyBatch)
	return nil
}

func (mw *mockWriter) Close() error {
	mw.mu.Lock()
	mw.closed++
	mw.mu.Unlock()
	return nil
}

func (mw *mockWriter) Validate() error {
	return nil
}

func (mw *mockWriter) totalWritten() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	total := 0
	for _, batch := range mw.batches {
		total += len(batch)
	}
	return total
}

func TestPipelineRecordKeepsDuplicatesByDefault(t *testing.T) {
	writer := &mockWriter{}
	p, err := NewPipeline(writer, 0)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	for page := 0; page < 3; page++ {
		n, err := p.Record("Sport", []string{"Team Wins", "Team Wins"})
		if err != nil {
			t.Fatalf("record page %d: %v", page, err)
		}
		if n != 2 {
			t.Fatalf("written=%d, want 2", n)
		}
	}

	if writer.totalWritten() != 6 {
		t.Fatalf("total=%d, want 6", writer.totalWritten())
	}
	if len(writer.batches) != 3 {
		t.Fatalf("batches=%d, want one write per page", len(writer.batches))
	}
	if got := p.GetMetrics()["written_rows"].(int64); got != 6 {
		t.Fatalf("written_rows=%d, want 6", got)
	}
}

func TestPipelineDedupeWindow(t *testing.T) {
	writer := &mockWriter{}
	p, err := NewPipeline(writer, 2)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	if n, _ := p.Record("Sport", []string{"A", "A", "B"}); n != 2 {
		t.Fatalf("first page written=%d, want 2", n)
	}
	// Same title under another category is a different row.
	if n, _ := p.Record("Politics", []string{"A"}); n != 1 {
		t.Fatalf("other category written=%d, want 1", n)
	}
	// Window of 2 evicted Sport/A.
	if n, _ := p.Record("Sport", []string{"A"}); n != 1 {
		t.Fatalf("evicted title written=%d, want 1", n)
	}

	skipped := p.GetMetrics()["skipped"].(map[string]int)
	if skipped["duplicate_title"] != 1 {
		t.Fatalf("skipped=%v", skipped)
	}
}

func TestPipelineRecordEmpty(t *testing.T) {
	writer := &mockWriter{}
	p, err := NewPipeline(writer, 0)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	n, err := p.Record("Sport", nil)
	if err != nil || n != 0 {
		t.Fatalf("record empty = %d, %v", n, err)
	}
	if len(writer.batches) != 0 {
		t.Fatalf("empty page reached the writer")
	}
}

func TestPipelineWriteErrorPropagates(t *testing.T) {
	writeErr := errors.New("disk full")
	p, err := NewPipeline(&mockWriter{writeErr: writeErr}, 0)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	n, err := p.Record("Sport", []string{"A"})
	if !errors.Is(err, writeErr) {
		t.Fatalf("err=%v, want %v", err, writeErr)
	}
	if n != 0 {
		t.Fatalf("written=%d after failure", n)
	}
}

func TestPipelineClose(t *testing.T) {
	writer := &mockWriter{}
	p, err := NewPipeline(writer, 0)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if writer.closed != 1 {
		t.Fatalf("writer closed %d times", writer.closed)
	}
	if _, err := p.Record("Sport", []string{"A"}); !errors.Is(err, ErrPipelineClosed) {
		t.Fatalf("record after close = %v", err)
	}
}

func TestOpenSelectsWriter(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		format string
		file   string
		check  func(OutputWriter) bool
	}{
		{format: config.FormatCSV, file: "news.csv", check: func(w OutputWriter) bool { _, ok := w.(*CSVWriter); return ok }},
		{format: config.FormatJSON, file: "news.jsonl", check: func(w OutputWriter) bool { _, ok := w.(*JSONWriter); return ok }},
		{format: config.FormatDual, file: "both.csv", check: func(w OutputWriter) bool { _, ok := w.(*DualWriter); return ok }},
		{format: config.FormatSQLite, file: "news.db", check: func(w OutputWriter) bool { _, ok := w.(*SQLiteWriter); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.OutputFormat = tt.format
			cfg.OutputFile = filepath.Join(dir, tt.file)

			w, err := Open(context.Background(), cfg, "run")
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer w.Close()
			if !tt.check(w) {
				t.Fatalf("unexpected writer type %T", w)
			}
		})
	}

	cfg := config.DefaultConfig()
	cfg.OutputFormat = "xml"
	if _, err := Open(context.Background(), cfg, "run"); !errors.Is(err, config.ErrInvalidFormat) {
		t.Fatalf("unknown format err=%v", err)
	}
}

func TestPipelineEndToEndCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	writer, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	p, err := NewPipeline(writer, 0)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if _, err := p.Record("Sport", []string{"Team Wins", "Team Wins"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	// Rows are durable before Close.
	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows before close=%d, want 3", len(rows))
	}
	want := models.Record{Category: "Sport", Title: "Team Wins"}
	if rows[1][0] != want.Category || rows[1][1] != want.Title {
		t.Fatalf("row=%v", rows[1])
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
