package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvString returns the trimmed value of key and whether it was set to something non-blank.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer.
func EnvInt(key string) (int, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvDuration parses key with time.ParseDuration.
func EnvDuration(key string) (time.Duration, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvBool parses key with strconv.ParseBool.
func EnvBool(key string) (bool, bool, error) {
	raw, ok := EnvString(key)
	if !ok {
		return false, false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// LoadDotEnv loads variables from the given .env files without overriding
// anything already present in the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overlays SCRAPER_* variables onto cfg.
func ApplyEnv(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"SCRAPER_MAX_FAILURES", &cfg.MaxFailures},
		{"SCRAPER_MAX_EMPTY_PAGES", &cfg.MaxEmptyPages},
		{"SCRAPER_HEADER_ROTATION", &cfg.HeaderRotation},
		{"SCRAPER_SESSION_ROTATION", &cfg.SessionRotation},
		{"SCRAPER_START_PAGE", &cfg.StartPage},
		{"SCRAPER_PAGES", &cfg.MaxPages},
		{"SCRAPER_DEDUPE_SIZE", &cfg.DedupeMaxSize},
	}
	for _, item := range ints {
		value, ok, err := EnvInt(item.key)
		if err != nil {
			return err
		}
		if ok {
			*item.dst = value
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SCRAPER_TIMEOUT", &cfg.Timeout},
		{"SCRAPER_SLEEP_MIN", &cfg.SleepMin},
		{"SCRAPER_SLEEP_MAX", &cfg.SleepMax},
	}
	for _, item := range durations {
		value, ok, err := EnvDuration(item.key)
		if err != nil {
			return err
		}
		if ok {
			*item.dst = value
		}
	}

	if value, ok, err := EnvBool("SCRAPER_EMPTY_IS_FAILURE"); err != nil {
		return err
	} else if ok {
		cfg.CountEmptyAsFailure = value
	}

	if value, ok := EnvString("SCRAPER_OUTPUT"); ok {
		cfg.OutputFile = value
	}
	if value, ok := EnvString("SCRAPER_FORMAT"); ok {
		cfg.OutputFormat = strings.ToLower(value)
	}
	if value, ok := EnvString("SCRAPER_POSTGRES_DSN"); ok {
		cfg.PostgresDSN = value
	}
	if value, ok := EnvString("SCRAPER_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	return nil
}

// ApplyBotEnv overlays BOT_TOKEN, MODEL_PATH and BOT_METRICS_ADDR onto cfg.
func ApplyBotEnv(cfg *BotConfig) error {
	if value, ok := EnvString("BOT_TOKEN"); ok {
		cfg.Token = value
	}
	if value, ok := EnvString("MODEL_PATH"); ok {
		cfg.ModelPath = value
	}
	if value, ok := EnvString("BOT_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok, err := EnvInt("BOT_CACHE_SIZE"); err != nil {
		return err
	} else if ok {
		cfg.CacheSize = value
	}
	return nil
}
