package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/aluiziolira/go-news-classify/models"
)

// AppName is used for XDG directory paths.
const AppName = "newsclass"

// DefaultConfigFile is looked up in the working directory.
const DefaultConfigFile = "newsclass.yaml"

// File is the YAML configuration file layout. Zero values leave the
// corresponding Config field untouched.
type File struct {
	Categories []models.Category `yaml:"categories,omitempty"`
	UserAgents []string          `yaml:"user_agents,omitempty"`
	Alphabets  []string          `yaml:"alphabets,omitempty"`

	Selectors struct {
		Container string `yaml:"container,omitempty"`
		Link      string `yaml:"link,omitempty"`
	} `yaml:"selectors,omitempty"`

	StartPage           int   `yaml:"start_page,omitempty"`
	MaxPages            int   `yaml:"max_pages,omitempty"`
	MaxFailures         int   `yaml:"max_failures,omitempty"`
	MaxEmptyPages       int   `yaml:"max_empty_pages,omitempty"`
	CountEmptyAsFailure *bool `yaml:"count_empty_as_failure,omitempty"`
	HeaderRotation      int   `yaml:"header_rotation,omitempty"`
	SessionRotation     int   `yaml:"session_rotation,omitempty"`

	Timeout  time.Duration `yaml:"timeout,omitempty"`
	SleepMin time.Duration `yaml:"sleep_min,omitempty"`
	SleepMax time.Duration `yaml:"sleep_max,omitempty"`

	Output struct {
		File        string `yaml:"file,omitempty"`
		Format      string `yaml:"format,omitempty"`
		PostgresDSN string `yaml:"postgres_dsn,omitempty"`
		DedupeSize  int    `yaml:"dedupe_size,omitempty"`
	} `yaml:"output,omitempty"`
}

// XDGConfigPath returns $XDG_CONFIG_HOME/newsclass/config.yaml.
func XDGConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// FindConfigFile returns explicit if it exists, otherwise the first of
// ./newsclass.yaml and the XDG config path that exists. An empty string means
// no file was found.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	for _, candidate := range []string{DefaultConfigFile, XDGConfigPath()} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// LoadFile parses a YAML configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// Apply overlays the non-zero values of f onto cfg.
func (f *File) Apply(cfg *Config) {
	if len(f.Categories) > 0 {
		cfg.Categories = append([]models.Category(nil), f.Categories...)
	}
	if len(f.UserAgents) > 0 {
		cfg.UserAgents = append([]string(nil), f.UserAgents...)
	}
	if len(f.Alphabets) > 0 {
		cfg.Alphabets = append([]string(nil), f.Alphabets...)
	}
	if f.Selectors.Container != "" {
		cfg.ContainerSelector = f.Selectors.Container
	}
	if f.Selectors.Link != "" {
		cfg.LinkSelector = f.Selectors.Link
	}
	if f.StartPage != 0 {
		cfg.StartPage = f.StartPage
	}
	if f.MaxPages != 0 {
		cfg.MaxPages = f.MaxPages
	}
	if f.MaxFailures != 0 {
		cfg.MaxFailures = f.MaxFailures
	}
	if f.MaxEmptyPages != 0 {
		cfg.MaxEmptyPages = f.MaxEmptyPages
	}
	if f.CountEmptyAsFailure != nil {
		cfg.CountEmptyAsFailure = *f.CountEmptyAsFailure
	}
	if f.HeaderRotation != 0 {
		cfg.HeaderRotation = f.HeaderRotation
	}
	if f.SessionRotation != 0 {
		cfg.SessionRotation = f.SessionRotation
	}
	if f.Timeout != 0 {
		cfg.Timeout = f.Timeout
	}
	if f.SleepMin != 0 {
		cfg.SleepMin = f.SleepMin
	}
	if f.SleepMax != 0 {
		cfg.SleepMax = f.SleepMax
	}
	if f.Output.File != "" {
		cfg.OutputFile = f.Output.File
	}
	if f.Output.Format != "" {
		cfg.OutputFormat = f.Output.Format
	}
	if f.Output.PostgresDSN != "" {
		cfg.PostgresDSN = f.Output.PostgresDSN
	}
	if f.Output.DedupeSize != 0 {
		cfg.DedupeMaxSize = f.Output.DedupeSize
	}
}
