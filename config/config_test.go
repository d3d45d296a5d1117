package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-news-classify/models"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "no categories",
			mutate:  func(cfg *Config) { cfg.Categories = nil },
			wantErr: ErrNoCategories,
		},
		{
			name: "category without host",
			mutate: func(cfg *Config) {
				cfg.Categories = []models.Category{{Name: "Sport", BaseURL: "/page/"}}
			},
			wantErr: ErrInvalidCategory,
		},
		{
			name: "duplicate category",
			mutate: func(cfg *Config) {
				cfg.Categories = append(cfg.Categories, cfg.Categories[0])
			},
			wantErr: ErrInvalidCategory,
		},
		{
			name:    "zero threshold",
			mutate:  func(cfg *Config) { cfg.MaxFailures = 0 },
			wantErr: ErrInvalidThreshold,
		},
		{
			name: "separate empty policy without limit",
			mutate: func(cfg *Config) {
				cfg.CountEmptyAsFailure = false
				cfg.MaxEmptyPages = 0
			},
			wantErr: ErrInvalidThreshold,
		},
		{
			name:    "zero header rotation",
			mutate:  func(cfg *Config) { cfg.HeaderRotation = 0 },
			wantErr: ErrInvalidRotation,
		},
		{
			name:    "negative timeout",
			mutate:  func(cfg *Config) { cfg.Timeout = -1 * time.Second },
			wantErr: ErrInvalidTimeout,
		},
		{
			name: "inverted sleep range",
			mutate: func(cfg *Config) {
				cfg.SleepMin = time.Second
				cfg.SleepMax = time.Millisecond
			},
			wantErr: ErrInvalidSleep,
		},
		{
			name:    "empty identity pool",
			mutate:  func(cfg *Config) { cfg.UserAgents = nil },
			wantErr: ErrEmptyUserAgents,
		},
		{
			name:    "blank identity",
			mutate:  func(cfg *Config) { cfg.UserAgents = []string{"ua", ""} },
			wantErr: ErrEmptyUserAgents,
		},
		{
			name:    "no alphabets",
			mutate:  func(cfg *Config) { cfg.Alphabets = nil },
			wantErr: ErrNoAlphabets,
		},
		{
			name:    "unknown format",
			mutate:  func(cfg *Config) { cfg.OutputFormat = "xml" },
			wantErr: ErrInvalidFormat,
		},
		{
			name: "postgres without dsn",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = FormatPostgres
				cfg.PostgresDSN = ""
			},
			wantErr: ErrNoOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.StartPage != 2 || cfg.MaxFailures != 3 || cfg.HeaderRotation != 100 || cfg.SessionRotation != 400 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Timeout != 15*time.Second {
		t.Fatalf("timeout = %v, want 15s", cfg.Timeout)
	}
}

func TestFilterCategories(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.FilterCategories([]string{"Sport", "Politics"}); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(cfg.Categories) != 2 || cfg.Categories[0].Name != "Politics" || cfg.Categories[1].Name != "Sport" {
		t.Fatalf("categories = %+v, want Politics then Sport", cfg.Categories)
	}

	if err := cfg.FilterCategories([]string{"Weather"}); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestBotConfigValidate(t *testing.T) {
	cfg := DefaultBotConfig()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingBotToken) {
		t.Fatalf("expected ErrMissingBotToken, got %v", err)
	}
	cfg.Token = "123:abc"
	cfg.ModelPath = ""
	if err := cfg.Validate(); !errors.Is(err, ErrMissingModelPath) {
		t.Fatalf("expected ErrMissingModelPath, got %v", err)
	}
	cfg.ModelPath = "model.json"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid bot config rejected: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SCRAPER_MAX_FAILURES", "5")
	t.Setenv("SCRAPER_TIMEOUT", "3s")
	t.Setenv("SCRAPER_FORMAT", "JSON")
	t.Setenv("SCRAPER_OUTPUT", "out/news.jsonl")
	t.Setenv("SCRAPER_EMPTY_IS_FAILURE", "false")

	cfg := DefaultConfig()
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.MaxFailures != 5 {
		t.Fatalf("max failures = %d, want 5", cfg.MaxFailures)
	}
	if cfg.Timeout != 3*time.Second {
		t.Fatalf("timeout = %v, want 3s", cfg.Timeout)
	}
	if cfg.OutputFormat != FormatJSON || cfg.OutputFile != "out/news.jsonl" {
		t.Fatalf("output = %s %s", cfg.OutputFormat, cfg.OutputFile)
	}
	if cfg.CountEmptyAsFailure {
		t.Fatalf("expected empty pages to be counted separately")
	}
}

func TestApplyEnvInvalidInt(t *testing.T) {
	t.Setenv("SCRAPER_HEADER_ROTATION", "often")
	if err := ApplyEnv(DefaultConfig()); err == nil || !strings.Contains(err.Error(), "SCRAPER_HEADER_ROTATION") {
		t.Fatalf("expected error naming the variable, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("NEWSCLASS_TEST_TOKEN=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("NEWSCLASS_TEST_TOKEN") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, _ := EnvString("NEWSCLASS_TEST_TOKEN"); got != "from-file" {
		t.Fatalf("token = %q, want from-file", got)
	}
}

func TestLoadFileApply(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newsclass.yaml")
	content := `
categories:
  - name: Sport
    url: http://example.test/sport/page/
user_agents: ["agent-a", "agent-b"]
alphabets: ["a-z"]
max_failures: 4
count_empty_as_failure: false
max_empty_pages: 6
timeout: 5s
output:
  file: out/sport.csv
  dedupe_size: 100
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	f.Apply(cfg)

	if len(cfg.Categories) != 1 || cfg.Categories[0].Name != "Sport" {
		t.Fatalf("categories = %+v", cfg.Categories)
	}
	if len(cfg.UserAgents) != 2 || cfg.MaxFailures != 4 || cfg.MaxEmptyPages != 6 {
		t.Fatalf("unexpected overlay: %+v", cfg)
	}
	if cfg.CountEmptyAsFailure {
		t.Fatalf("count_empty_as_failure not applied")
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.OutputFile != "out/sport.csv" || cfg.DedupeMaxSize != 100 {
		t.Fatalf("output overlay = %s %d", cfg.OutputFile, cfg.DedupeMaxSize)
	}
	if cfg.HeaderRotation != 100 {
		t.Fatalf("untouched field changed: header rotation = %d", cfg.HeaderRotation)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("overlaid config invalid: %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestFindConfigFileExplicit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if got := FindConfigFile(path); got != "" {
		t.Fatalf("missing explicit file should not be found, got %q", got)
	}
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := FindConfigFile(path); got != path {
		t.Fatalf("FindConfigFile = %q, want %q", got, path)
	}
}
