package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aluiziolira/go-news-classify/config"
	"github.com/aluiziolira/go-news-classify/models"
	"github.com/aluiziolira/go-news-classify/parser"
)

// Recorder persists the accepted titles of one page and makes them durable.
type Recorder interface {
	Record(category string, titles []string) (int, error)
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) {
		s.logger = logger
	}
}

// WithTransport routes every session through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Scraper) {
		s.transport = rt
	}
}

// WithRand fixes the random source used for identities and sleep jitter.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Scraper) {
		s.rnd = rnd
	}
}

// WithSleep replaces the inter-page sleep.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(s *Scraper) {
		s.sleep = sleep
	}
}

// WithRunID sets the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(s *Scraper) {
		s.runID = id
	}
}

// Scraper walks category listings page by page and owns the session,
// identity and per-category counters for the duration of a run.
type Scraper struct {
	cfg       *config.Config
	rotator   *Rotator
	sanitizer *parser.Sanitizer
	recorder  Recorder
	Metrics   *Metrics

	logger    *slog.Logger
	transport http.RoundTripper
	rnd       *rand.Rand
	sleep     func(context.Context, time.Duration) error
	runID     string

	session  *Session
	identity Identity
	result   *models.CrawlResult
}

// categoryState is the mutable state of one category run.
type categoryState struct {
	category models.Category
	cursor   int
	failures int
	empties  int
	result   *models.CategoryResult
}

// NewScraper builds a scraper from cfg writing through recorder.
func NewScraper(cfg *config.Config, recorder Recorder, opts ...Option) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		return nil, fmt.Errorf("scraper: recorder is required")
	}

	sanitizer, err := parser.NewSanitizer(cfg.Alphabets)
	if err != nil {
		return nil, err
	}

	s := &Scraper{
		cfg:       cfg,
		sanitizer: sanitizer,
		recorder:  recorder,
		Metrics:   NewMetrics(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}

	rotator, err := NewRotator(cfg.UserAgents, cfg.Timeout, s.rnd)
	if err != nil {
		return nil, err
	}
	rotator.Transport = s.transport
	s.rotator = rotator
	return s, nil
}

// RunID returns the identifier attached to this run's logs and rows.
func (s *Scraper) RunID() string {
	return s.runID
}

// Run crawls every configured category in order. Cancelling ctx stops the run
// after the in-flight page; the result is then marked Interrupted and the
// error is nil. Only failures to acquire a session or to write the sink abort
// the run with an error.
func (s *Scraper) Run(ctx context.Context) (*models.CrawlResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := s.logger.With(slog.String("run_id", s.runID))
	s.result = &models.CrawlResult{
		RunID:     s.runID,
		StartTime: time.Now(),
		Rotations: make(map[string]int),
	}
	defer func() { s.result.EndTime = time.Now() }()

	s.identity = s.rotator.DrawIdentity()
	session, err := s.rotator.NewSession(ctx, s.identity)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	s.session = session
	defer func() {
		s.session.Close()
		logger.Debug("session closed")
	}()

	for _, cat := range s.cfg.Categories {
		if ctx.Err() != nil {
			s.result.Interrupted = true
			break
		}

		catResult, err := s.crawlCategory(ctx, logger, cat)
		s.result.Categories = append(s.result.Categories, catResult)
		if err != nil {
			return s.result, err
		}
		if catResult.Reason == models.ReasonInterrupted {
			s.result.Interrupted = true
			break
		}
	}
	return s.result, nil
}

func (s *Scraper) crawlCategory(ctx context.Context, logger *slog.Logger, cat models.Category) (*models.CategoryResult, error) {
	logger = logger.With(slog.String("category", cat.Name))
	logger.Info("scraping category", slog.String("base_url", cat.BaseURL))

	st := &categoryState{
		category: cat,
		cursor:   s.cfg.StartPage,
		result: &models.CategoryResult{
			Category:     cat.Name,
			FirstPage:    s.cfg.StartPage,
			ErrorsByType: make(map[string]int),
		},
	}
	finish := func(reason string) *models.CategoryResult {
		st.result.Reason = reason
		st.result.NextPage = st.cursor
		s.Metrics.IncCategory(reason)
		return st.result
	}

	for {
		if reason, stop := s.shouldStop(st); stop {
			logger.Info("end of category",
				slog.String("reason", reason),
				slog.Int("pages", st.result.PagesTried),
				slog.Int("rows", st.result.RowsWritten),
			)
			return finish(reason), nil
		}
		if ctx.Err() != nil {
			return finish(models.ReasonInterrupted), nil
		}

		if err := s.rotate(ctx, logger, st.cursor); err != nil {
			return finish(models.ReasonFailed), err
		}

		outcome := s.crawlPage(st)
		if ctx.Err() != nil && outcome.Kind == models.OutcomeTransportError {
			// The fetch was abandoned by shutdown; nothing was written for it.
			return finish(models.ReasonInterrupted), nil
		}
		if err := s.apply(logger, st, outcome); err != nil {
			return finish(models.ReasonFailed), err
		}

		st.result.LastPage = st.cursor
		st.cursor++

		if err := s.sleep(ctx, s.jitter()); err != nil {
			return finish(models.ReasonInterrupted), nil
		}
	}
}

func (s *Scraper) shouldStop(st *categoryState) (string, bool) {
	if st.failures >= s.cfg.MaxFailures {
		return models.ReasonExhausted, true
	}
	if !s.cfg.CountEmptyAsFailure && st.empties >= s.cfg.MaxEmptyPages {
		return models.ReasonExhausted, true
	}
	if s.cfg.MaxPages > 0 && st.result.PagesTried >= s.cfg.MaxPages {
		return models.ReasonPageLimit, true
	}
	return "", false
}

// rotate applies the identity and session cadences for the page about to be fetched.
func (s *Scraper) rotate(ctx context.Context, logger *slog.Logger, cursor int) error {
	if cursor%s.cfg.HeaderRotation == 0 {
		s.identity = s.rotator.DrawIdentity()
		s.session.SetIdentity(s.identity)
		s.result.Rotations["identity"]++
		s.Metrics.IncRotation("identity")
		logger.Debug("identity rotated", slog.Int("page", cursor), slog.String("user_agent", string(s.identity)))
	}

	if cursor%s.cfg.SessionRotation == 0 {
		s.session.Close()
		session, err := s.rotator.NewSession(ctx, s.identity)
		if err != nil {
			return fmt.Errorf("rotate session: %w", err)
		}
		s.session = session
		s.result.Rotations["session"]++
		s.Metrics.IncRotation("session")
		logger.Debug("session rotated", slog.Int("page", cursor))
	}
	return nil
}

// crawlPage fetches one listing page and turns a successful body into sanitized titles.
func (s *Scraper) crawlPage(st *categoryState) models.PageOutcome {
	outcome := s.session.Fetch(st.category.PageURL(st.cursor))
	s.result.RequestCount++
	st.result.PagesTried++
	s.Metrics.ObserveDuration(outcome.Duration)

	if outcome.Kind == models.OutcomeData {
		doc, err := parser.ParseDocument(outcome.Body)
		if err != nil {
			outcome.Err = err
		} else {
			raw := parser.ExtractTitles(doc, s.cfg.ContainerSelector, s.cfg.LinkSelector)
			outcome.Titles = s.sanitizer.Clean(raw)
		}
		if len(outcome.Titles) == 0 {
			outcome.Kind = models.OutcomeEmpty
		}
	}

	s.Metrics.IncRequest(outcome.Kind.String())
	return outcome
}

// apply updates the counters for an outcome and persists productive pages.
func (s *Scraper) apply(logger *slog.Logger, st *categoryState, outcome models.PageOutcome) error {
	attrs := []any{
		slog.String("url", outcome.URL),
		slog.Int("page", st.cursor),
	}

	switch outcome.Kind {
	case models.OutcomeData:
		st.failures = 0
		st.empties = 0
		written, err := s.recorder.Record(st.category.Name, outcome.Titles)
		st.result.RowsWritten += written
		s.result.RowCount += written
		s.Metrics.AddItems(st.category.Name, written)
		if err != nil {
			return fmt.Errorf("record %s page %d: %w", st.category.Name, st.cursor, err)
		}
		logger.Info("page fetched", append(attrs,
			slog.Int("status", outcome.StatusCode),
			slog.Int("titles", len(outcome.Titles)),
			slog.Int("written", written),
		)...)

	case models.OutcomeEmpty:
		if s.cfg.CountEmptyAsFailure {
			st.failures++
		} else {
			st.empties++
		}
		logger.Info("empty page", append(attrs,
			slog.Int("status", outcome.StatusCode),
			slog.Int("failures", st.failures),
			slog.Int("empties", st.empties),
		)...)

	case models.OutcomeStatusError:
		st.failures++
		s.countError(st, outcome.Err)
		logger.Warn("skipping page", append(attrs,
			slog.Int("status", outcome.StatusCode),
			slog.Int("failures", st.failures),
		)...)

	case models.OutcomeTransportError:
		st.failures++
		s.countError(st, outcome.Err)
		logger.Warn("request failed", append(attrs,
			slog.Any("error", outcome.Err),
			slog.Int("failures", st.failures),
		)...)
	}
	return nil
}

func (s *Scraper) countError(st *categoryState, err error) {
	label := errorTypeLabel(err)
	st.result.ErrorsByType[label]++
	s.result.ErrorCount++
	s.Metrics.IncError(label)
}

// jitter returns a uniform duration in [SleepMin, SleepMax].
func (s *Scraper) jitter() time.Duration {
	span := s.cfg.SleepMax - s.cfg.SleepMin
	if span <= 0 {
		return s.cfg.SleepMin
	}
	return s.cfg.SleepMin + time.Duration(s.rnd.Int64N(int64(span)+1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
