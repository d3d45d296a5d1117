package config

import "errors"

// Configuration errors returned by Validate. Callers match them with errors.Is.
var (
	ErrNoCategories     = errors.New("no categories configured")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidThreshold = errors.New("invalid failure threshold: must be positive")
	ErrInvalidRotation  = errors.New("invalid rotation period: must be positive")
	ErrInvalidTimeout   = errors.New("invalid timeout: must be positive")
	ErrInvalidSleep     = errors.New("invalid sleep range")
	ErrEmptyUserAgents  = errors.New("user agent pool cannot be empty")
	ErrNoAlphabets      = errors.New("at least one alphabet range is required")
	ErrNoOutput         = errors.New("no output destination configured")
	ErrInvalidFormat    = errors.New("output format must be csv, json, dual, sqlite, or postgres")

	// ErrMissingBotToken is fatal at bot startup.
	ErrMissingBotToken = errors.New("BOT_TOKEN not found in environment variables")
	// ErrMissingModelPath is fatal at bot startup.
	ErrMissingModelPath = errors.New("model path cannot be empty")

	// ErrConfigNotFound is returned when an explicitly named config file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
