package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-news-classify/config"
	"github.com/aluiziolira/go-news-classify/pipeline"
	"github.com/aluiziolira/go-news-classify/scraper"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl category listings and append labeled titles to the dataset",
		Long: `Scrape walks every configured category listing page by page, starting at
page 2, and appends one row per cleaned title to the output. A category ends
after the configured number of consecutive failed or empty pages.

The output is append-only: rerunning extends the dataset and the header is
written only once.

Examples:
  # Crawl all default categories into data/news.csv
  newsclass scrape

  # Crawl only Sport, at most 50 pages, into SQLite
  newsclass scrape --category Sport --pages 50 --format sqlite -o data/news.db

  # Use a configuration file
  newsclass scrape -c newsclass.yaml

Configuration file (newsclass.yaml) example:
  categories:
    - name: Sport
      url: https://www.aravot.am/category/news/sport/page/
  max_failures: 3
  output:
    file: data/news.csv
    format: csv`,
		Args: cobra.NoArgs,
		RunE: runScrapeCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: ./newsclass.yaml or $XDG_CONFIG_HOME/newsclass/config.yaml)")
	cmd.Flags().StringSlice("category", nil,
		"Crawl only the named categories (repeatable)")

	cmd.Flags().StringP("output", "o", defaults.OutputFile, "Output file path")
	cmd.Flags().StringP("format", "f", defaults.OutputFormat, "Output format: csv, json, dual, sqlite or postgres")
	cmd.Flags().String("postgres-dsn", "", "PostgreSQL connection string for --format postgres")
	cmd.Flags().Int("dedupe-size", defaults.DedupeMaxSize, "Drop titles repeated within the last N rows (0 keeps every row)")

	cmd.Flags().Int("start-page", defaults.StartPage, "First listing page of every category")
	cmd.Flags().IntP("pages", "p", defaults.MaxPages, "Maximum pages per category (0 = until exhausted)")
	cmd.Flags().Int("max-failures", defaults.MaxFailures, "Consecutive failed pages that end a category")
	cmd.Flags().Bool("empty-is-failure", defaults.CountEmptyAsFailure, "Count pages without titles as failures")
	cmd.Flags().Int("max-empty-pages", defaults.MaxEmptyPages, "Consecutive empty pages that end a category when --empty-is-failure=false")

	cmd.Flags().Int("header-rotation", defaults.HeaderRotation, "Draw a new user agent every N pages")
	cmd.Flags().Int("session-rotation", defaults.SessionRotation, "Open a new session every N pages")
	cmd.Flags().DurationP("timeout", "t", defaults.Timeout, "Per-request timeout")
	cmd.Flags().Duration("sleep-min", defaults.SleepMin, "Minimum pause between pages")
	cmd.Flags().Duration("sleep-max", defaults.SleepMax, "Maximum pause between pages")

	cmd.Flags().String("metrics-addr", defaults.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")

	return cmd
}

// buildScrapeConfig layers defaults, the config file, the environment and flags.
func buildScrapeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if err := config.LoadDotEnv(getDotEnvFlag(cmd)); err != nil {
		return nil, err
	}

	explicit, _ := cmd.Flags().GetString("config")
	path := explicit
	if path == "" {
		path = config.FindConfigFile("")
	}
	if path != "" {
		file, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		file.Apply(cfg)
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputFile, _ = flags.GetString("output")
	}
	if flags.Changed("format") {
		format, _ := flags.GetString("format")
		cfg.OutputFormat = strings.ToLower(format)
	}
	if flags.Changed("postgres-dsn") {
		cfg.PostgresDSN, _ = flags.GetString("postgres-dsn")
	}
	ints := map[string]*int{
		"dedupe-size":      &cfg.DedupeMaxSize,
		"start-page":       &cfg.StartPage,
		"pages":            &cfg.MaxPages,
		"max-failures":     &cfg.MaxFailures,
		"max-empty-pages":  &cfg.MaxEmptyPages,
		"header-rotation":  &cfg.HeaderRotation,
		"session-rotation": &cfg.SessionRotation,
	}
	for name, dst := range ints {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}
	durations := map[string]*time.Duration{
		"timeout":   &cfg.Timeout,
		"sleep-min": &cfg.SleepMin,
		"sleep-max": &cfg.SleepMax,
	}
	for name, dst := range durations {
		if flags.Changed(name) {
			*dst, _ = flags.GetDuration(name)
		}
	}
	if flags.Changed("empty-is-failure") {
		cfg.CountEmptyAsFailure, _ = flags.GetBool("empty-is-failure")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}

	categories, _ := flags.GetStringSlice("category")
	if err := cfg.FilterCategories(categories); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildScrapeConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScrape(ctx, cfg, setupLogger(cfg.Verbose), cmd.OutOrStdout())
}

// runScrape crawls cfg into its configured sink and prints the summary to out.
// The sink is closed on every return path.
func runScrape(ctx context.Context, cfg *config.Config, base *slog.Logger, out io.Writer, opts ...scraper.Option) error {
	runID := uuid.NewString()
	logger := base.With(slog.String("run_id", runID))

	writer, err := pipeline.Open(ctx, cfg, runID)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}
	p, err := pipeline.NewPipeline(writer, cfg.DedupeMaxSize)
	if err != nil {
		writer.Close()
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Error("close writer", slog.Any("error", err))
		}
	}()

	// The scraper tags its own lines with the run id.
	opts = append([]scraper.Option{scraper.WithLogger(base), scraper.WithRunID(runID)}, opts...)
	s, err := scraper.NewScraper(cfg, p, opts...)
	if err != nil {
		return fmt.Errorf("initialising scraper: %w", err)
	}

	metrics := startMetricsServer(cfg.MetricsAddr, s.Metrics.Registry, logger)
	defer metrics.shutdown()
	if cfg.Verbose {
		reportCtx, cancelReport := context.WithCancel(ctx)
		defer cancelReport()
		p.StartMetricsReporting(reportCtx, logger, 10*time.Second)
	}

	logger.Info("starting scrape",
		slog.Int("categories", len(cfg.Categories)),
		slog.String("output", cfg.OutputFile),
		slog.String("format", cfg.OutputFormat),
	)

	result, runErr := s.Run(ctx)
	if runErr != nil {
		if result != nil {
			printSummary(out, result, cfg, p.GetMetrics())
		}
		return fmt.Errorf("scraping failed: %w", runErr)
	}

	if result.RowCount > 0 {
		if err := writer.Validate(); err != nil {
			logger.Warn("output validation failed", slog.Any("error", err))
		}
	}
	if err := p.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	printSummary(out, result, cfg, p.GetMetrics())
	if result.Interrupted {
		logger.Info("shutdown signal received, stopped after the current page")
	}
	printShutdown(out, result)
	return nil
}
