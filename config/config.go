package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/aluiziolira/go-news-classify/models"
)

// Output formats understood by the sink factory.
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatDual     = "dual"
	FormatSQLite   = "sqlite"
	FormatPostgres = "postgres"
)

// DefaultContainerSelector matches the listing container on aravot.am.
// The site really spells the attribute "cass".
const DefaultContainerSelector = `div[cass="category_items"]`

// DefaultCategories returns the category listings crawled by default, in crawl order.
func DefaultCategories() []models.Category {
	return []models.Category{
		{Name: "Politics", BaseURL: "https://www.aravot.am/category/news/politics/page/"},
		{Name: "Rights", BaseURL: "https://www.aravot.am/category/news/rights/page/"},
		{Name: "Education", BaseURL: "https://www.aravot.am/category/news/education/page/"},
		{Name: "Sport", BaseURL: "https://www.aravot.am/category/news/sport/page/"},
	}
}

// DefaultUserAgents is the identity pool drawn from on every header rotation.
func DefaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		"Mozilla/5.0 (X11; Linux x86_64)",
		"Mozilla/5.0 (Macintosh)",
		"Mozilla/5.0 (Android 11)",
		"Mozilla/5.0 (iPhone)",
	}
}

// DefaultAlphabets keeps Latin and Armenian letters.
func DefaultAlphabets() []string {
	return []string{"A-Z", "a-z", "Ա-Ֆ", "ա-ֆ"}
}

// Config holds crawler configuration.
type Config struct {
	Categories []models.Category

	// StartPage is the first enumerable listing page; the site has no page 1.
	StartPage int
	// MaxPages caps the pages attempted per category. Zero means unlimited.
	MaxPages int

	MaxFailures int
	// CountEmptyAsFailure folds successful-but-empty pages into the failure
	// counter. When false they are counted against MaxEmptyPages instead.
	CountEmptyAsFailure bool
	MaxEmptyPages       int

	HeaderRotation  int
	SessionRotation int

	Timeout  time.Duration
	SleepMin time.Duration
	SleepMax time.Duration

	UserAgents []string
	Alphabets  []string

	ContainerSelector string
	LinkSelector      string

	OutputFile    string
	OutputFormat  string
	PostgresDSN   string
	DedupeMaxSize int

	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns the defaults used against aravot.am.
func DefaultConfig() *Config {
	return &Config{
		Categories:          DefaultCategories(),
		StartPage:           2,
		MaxPages:            0,
		MaxFailures:         3,
		CountEmptyAsFailure: true,
		MaxEmptyPages:       3,
		HeaderRotation:      100,
		SessionRotation:     400,
		Timeout:             15 * time.Second,
		SleepMin:            100 * time.Millisecond,
		SleepMax:            300 * time.Millisecond,
		UserAgents:          DefaultUserAgents(),
		Alphabets:           DefaultAlphabets(),
		ContainerSelector:   DefaultContainerSelector,
		LinkSelector:        "a",
		OutputFile:          "data/news.csv",
		OutputFormat:        FormatCSV,
		DedupeMaxSize:       0,
		MetricsAddr:         "",
		Verbose:             false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return ErrNoCategories
	}
	seen := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidCategory)
		}
		if _, dup := seen[cat.Name]; dup {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidCategory, cat.Name)
		}
		seen[cat.Name] = struct{}{}

		parsed, err := url.Parse(cat.BaseURL)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidCategory, cat.Name, err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("%w: %s: base URL must include a host", ErrInvalidCategory, cat.Name)
		}
	}

	if c.StartPage < 0 {
		return fmt.Errorf("start page cannot be negative")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.MaxFailures <= 0 {
		return ErrInvalidThreshold
	}
	if !c.CountEmptyAsFailure && c.MaxEmptyPages <= 0 {
		return fmt.Errorf("%w: max empty pages must be positive when empty pages are counted separately", ErrInvalidThreshold)
	}
	if c.HeaderRotation <= 0 || c.SessionRotation <= 0 {
		return ErrInvalidRotation
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.SleepMin < 0 || c.SleepMax < 0 {
		return fmt.Errorf("%w: sleep cannot be negative", ErrInvalidSleep)
	}
	if c.SleepMax < c.SleepMin {
		return fmt.Errorf("%w: sleep max (%s) is below sleep min (%s)", ErrInvalidSleep, c.SleepMax, c.SleepMin)
	}
	if len(c.UserAgents) == 0 {
		return ErrEmptyUserAgents
	}
	for _, ua := range c.UserAgents {
		if ua == "" {
			return fmt.Errorf("%w: blank entry", ErrEmptyUserAgents)
		}
	}
	if len(c.Alphabets) == 0 {
		return ErrNoAlphabets
	}
	if c.ContainerSelector == "" || c.LinkSelector == "" {
		return fmt.Errorf("selectors cannot be empty")
	}
	if c.DedupeMaxSize < 0 {
		return fmt.Errorf("dedupe max size cannot be negative")
	}

	switch c.OutputFormat {
	case FormatCSV, FormatJSON, FormatDual, FormatSQLite:
		if c.OutputFile == "" {
			return ErrNoOutput
		}
	case FormatPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres output requires a DSN", ErrNoOutput)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.OutputFormat)
	}

	return nil
}

// FilterCategories keeps only the named categories, preserving configured order.
func (c *Config) FilterCategories(names []string) error {
	if len(names) == 0 {
		return nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	kept := make([]models.Category, 0, len(names))
	for _, cat := range c.Categories {
		if want[cat.Name] {
			kept = append(kept, cat)
			delete(want, cat.Name)
		}
	}
	for missing := range want {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidCategory, missing)
	}
	c.Categories = kept
	return nil
}

// BotConfig holds the chat front-end configuration.
type BotConfig struct {
	Token       string
	ModelPath   string
	CacheSize   int
	PollTimeout int // seconds, long-poll timeout for getUpdates
	MetricsAddr string
	Verbose     bool
}

// DefaultBotConfig returns the bot defaults. The token has no default.
func DefaultBotConfig() *BotConfig {
	return &BotConfig{
		ModelPath:   "model/nlp_model.json",
		CacheSize:   1024,
		PollTimeout: 60,
	}
}

// Validate fails fast on missing secrets or artifact paths.
func (b *BotConfig) Validate() error {
	if b.Token == "" {
		return ErrMissingBotToken
	}
	if b.ModelPath == "" {
		return ErrMissingModelPath
	}
	if b.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	if b.PollTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}
