package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/aluiziolira/go-news-classify/config"
	"github.com/aluiziolira/go-news-classify/models"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorDim     = color.New(color.Faint).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
)

const separator = "--------------------------------------------------"

func printSummary(w io.Writer, result *models.CrawlResult, cfg *config.Config, metrics map[string]interface{}) {
	duration := result.Duration()
	rowsPerSec := 0.0
	if duration.Seconds() > 0 {
		rowsPerSec = float64(result.RowCount) / duration.Seconds()
	}

	fmt.Fprintln(w, "\n"+separator)
	switch {
	case result.Interrupted:
		fmt.Fprintln(w, colorWarn("Scrape interrupted"))
	default:
		fmt.Fprintln(w, colorBold("Scrape complete"))
	}

	for _, cat := range result.Categories {
		reason := cat.Reason
		switch reason {
		case models.ReasonFailed:
			reason = colorError(reason)
		case models.ReasonInterrupted:
			reason = colorWarn(reason)
		}
		fmt.Fprintf(w, "  %-10s rows=%-6d pages=%-5d next=%-5d %s\n",
			cat.Category, cat.RowsWritten, cat.PagesTried, cat.NextPage, reason)
		if len(cat.ErrorsByType) > 0 {
			fmt.Fprintf(w, "  %-10s %s\n", "", colorDim("errors: "+formatCounts(cat.ErrorsByType)))
		}
	}

	successRate := 0.0
	if result.RequestCount > 0 {
		successRate = float64(result.RequestCount-result.ErrorCount) / float64(result.RequestCount) * 100
	}
	fmt.Fprintf(w, "  Total rows:    %d\n", result.RowCount)
	fmt.Fprintf(w, "  Requests:      %d\n", result.RequestCount)
	fmt.Fprintf(w, "  Success rate:  %.2f%%\n", successRate)
	if len(result.Rotations) > 0 {
		fmt.Fprintf(w, "  Rotations:     %s\n", formatCounts(result.Rotations))
	}
	if skipped, ok := metrics["skipped"].(map[string]int); ok && len(skipped) > 0 {
		fmt.Fprintf(w, "  Skipped:       %s\n", formatCounts(skipped))
	}
	fmt.Fprintf(w, "  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Rows/sec:      %.2f\n", rowsPerSec)
	fmt.Fprintf(w, "  Output:        %s (%s)\n", outputTarget(cfg), cfg.OutputFormat)
	fmt.Fprintln(w, separator)
}

func printShutdown(w io.Writer, result *models.CrawlResult) {
	if result.Interrupted {
		fmt.Fprintf(w, "%s Scraper stopped safely. Data saved. You can resume later.\n", colorSuccess("✓"))
		return
	}
	fmt.Fprintf(w, "%s Scraping finished. Data saved.\n", colorSuccess("✓"))
}

func outputTarget(cfg *config.Config) string {
	if cfg.OutputFormat == config.FormatPostgres {
		return "postgres"
	}
	return cfg.OutputFile
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
