// Package models defines data structures shared by the crawler and the classifier.
package models

import (
	"strconv"
	"time"
)

// Category is a fixed content section of the source site with its own paginated listing.
type Category struct {
	Name    string `yaml:"name" json:"name"`
	BaseURL string `yaml:"url" json:"url"`
}

// PageURL returns the listing URL for the given page number.
func (c Category) PageURL(page int) string {
	return c.BaseURL + strconv.Itoa(page)
}

// Record is the unit persisted to a sink.
type Record struct {
	Category string `csv:"Category" json:"category"`
	Title    string `csv:"Title" json:"title"`
}

// OutcomeKind distinguishes the four ways a page fetch can end.
type OutcomeKind int

const (
	// OutcomeData is a successful page with at least one accepted title.
	OutcomeData OutcomeKind = iota
	// OutcomeEmpty is a successful page that produced no accepted titles.
	OutcomeEmpty
	// OutcomeTransportError covers connection errors, timeouts and DNS failures.
	OutcomeTransportError
	// OutcomeStatusError is a response with a non-success status code.
	OutcomeStatusError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeData:
		return "data"
	case OutcomeEmpty:
		return "empty"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeStatusError:
		return "status_error"
	default:
		return "unknown"
	}
}

// PageOutcome is the result of a single page attempt.
type PageOutcome struct {
	Kind       OutcomeKind
	URL        string
	StatusCode int
	Body       []byte
	Titles     []string
	Err        error
	Duration   time.Duration
}

// Productive reports whether the page yielded accepted titles.
func (o PageOutcome) Productive() bool {
	return o.Kind == OutcomeData && len(o.Titles) > 0
}

// Termination reasons for a category run.
const (
	ReasonExhausted   = "exhausted"
	ReasonPageLimit   = "page_limit"
	ReasonInterrupted = "interrupted"
	ReasonFailed      = "failed"
)

// CategoryResult summarises the crawl of one category.
type CategoryResult struct {
	Category     string
	FirstPage    int
	LastPage     int
	NextPage     int
	PagesTried   int
	RowsWritten  int
	Reason       string
	ErrorsByType map[string]int
}

// CrawlResult holds the overall result of a crawl run.
type CrawlResult struct {
	RunID        string
	StartTime    time.Time
	EndTime      time.Time
	Categories   []*CategoryResult
	RequestCount int
	ErrorCount   int
	RowCount     int
	Rotations    map[string]int
	Interrupted  bool
}

// Duration returns the wall-clock time of the run.
func (r *CrawlResult) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}
