package models

import (
	"testing"
	"time"
)

func TestCategoryPageURL(t *testing.T) {
	c := Category{Name: "Sport", BaseURL: "https://example.test/category/sport/page/"}
	if got := c.PageURL(2); got != "https://example.test/category/sport/page/2" {
		t.Fatalf("PageURL(2) = %q", got)
	}
}

func TestPageOutcomeProductive(t *testing.T) {
	tests := []struct {
		name    string
		outcome PageOutcome
		want    bool
	}{
		{name: "data with titles", outcome: PageOutcome{Kind: OutcomeData, Titles: []string{"a"}}, want: true},
		{name: "data without titles", outcome: PageOutcome{Kind: OutcomeData}, want: false},
		{name: "empty", outcome: PageOutcome{Kind: OutcomeEmpty}, want: false},
		{name: "status error", outcome: PageOutcome{Kind: OutcomeStatusError, StatusCode: 500}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.Productive(); got != tt.want {
				t.Fatalf("Productive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCrawlResultDuration(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &CrawlResult{StartTime: start, EndTime: start.Add(3 * time.Second)}
	if got := r.Duration(); got != 3*time.Second {
		t.Fatalf("Duration() = %v, want 3s", got)
	}
}
