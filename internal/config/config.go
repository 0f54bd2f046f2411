// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and FAIRWAY_ env vars.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Storage drivers accepted by StorageDriver.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Default locations used when StoragePath is blank.
const (
	DefaultFileStoragePath   = "fairway-data"
	DefaultSQLiteStoragePath = "fairway.db"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// LeagueName is printed in the export header.
	LeagueName string `koanf:"league_name"`

	// CountedRounds is how many of a player's lowest rounds make up the total.
	CountedRounds int `koanf:"counted_rounds"`

	// Penalty is added to the partial sum of players below CountedRounds.
	Penalty int `koanf:"penalty"`

	// StorageDriver is one of memory, file or sqlite.
	StorageDriver string `koanf:"storage_driver"`

	// StoragePath is a directory for the file driver and a database file for
	// sqlite. Blank selects the driver's default location.
	StoragePath string `koanf:"storage_path"`

	// StorageKey names the persisted roster blob.
	StorageKey string `koanf:"storage_key"`

	// Commentary settings. When disabled a static line is used.
	CommentaryEnabled   bool   `koanf:"commentary_enabled"`
	CommentaryEndpoint  string `koanf:"commentary_endpoint"`
	CommentaryModel     string `koanf:"commentary_model"`
	CommentaryAPIKey    string `koanf:"commentary_api_key"`
	CommentaryTimeoutMS int    `koanf:"commentary_timeout_ms"`

	// CommentaryQueueSize bounds pending generation requests.
	CommentaryQueueSize int `koanf:"commentary_queue_size"`

	// CommentaryRatePerMin caps generations per minute.
	CommentaryRatePerMin int `koanf:"commentary_rate_per_min"`

	// IdempotencyKeys is how many score submission keys are remembered.
	IdempotencyKeys int `koanf:"idempotency_keys"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		LeagueName:           "Alumni Golf League",
		CountedRounds:        2,
		Penalty:              999,
		StorageDriver:        StorageFile,
		StorageKey:           "golf-league-players",
		CommentaryEndpoint:   "https://generativelanguage.googleapis.com/v1beta",
		CommentaryModel:      "gemini-3-flash-preview",
		CommentaryTimeoutMS:  15_000,
		CommentaryQueueSize:  8,
		CommentaryRatePerMin: 6,
		IdempotencyKeys:      4096,
	}
}

// StorageLocation returns StoragePath, or the default for the configured
// driver when it is blank. Memory storage has no location.
func (c *Config) StorageLocation() string {
	if p := strings.TrimSpace(c.StoragePath); p != "" {
		return p
	}
	switch strings.ToLower(c.StorageDriver) {
	case StorageFile:
		return DefaultFileStoragePath
	case StorageSQLite:
		return DefaultSQLiteStoragePath
	default:
		return ""
	}
}

// CommentaryTimeout returns the per-call generation timeout.
func (c *Config) CommentaryTimeout() time.Duration {
	return time.Duration(c.CommentaryTimeoutMS) * time.Millisecond
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.CountedRounds < 1:
		return fmt.Errorf("%w: counted_rounds must be at least 1, got %d", ErrInvalidConfig, c.CountedRounds)
	case c.Penalty < 0:
		return fmt.Errorf("%w: penalty must not be negative, got %d", ErrInvalidConfig, c.Penalty)
	case strings.TrimSpace(c.StorageKey) == "":
		return fmt.Errorf("%w: storage_key must not be empty", ErrInvalidConfig)
	case c.CommentaryTimeoutMS <= 0:
		return fmt.Errorf("%w: commentary_timeout_ms must be positive", ErrInvalidConfig)
	case c.CommentaryQueueSize <= 0:
		return fmt.Errorf("%w: commentary_queue_size must be positive", ErrInvalidConfig)
	case c.CommentaryRatePerMin <= 0:
		return fmt.Errorf("%w: commentary_rate_per_min must be positive", ErrInvalidConfig)
	case c.IdempotencyKeys <= 0:
		return fmt.Errorf("%w: idempotency_keys must be positive", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	switch strings.ToLower(c.StorageDriver) {
	case StorageMemory, StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("%w: unknown storage_driver %q", ErrInvalidConfig, c.StorageDriver)
	}
	if c.CommentaryEnabled && strings.TrimSpace(c.CommentaryAPIKey) == "" {
		return fmt.Errorf("%w: commentary_api_key is required when commentary is enabled", ErrInvalidConfig)
	}
	return nil
}
