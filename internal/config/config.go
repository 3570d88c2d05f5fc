// Package config defines service configuration and its loading layers.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory score report queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the report deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxSessions caps concurrently hosted boards.
	MaxSessions int `koanf:"max_sessions"`

	// SessionTTLSec evicts sessions idle for longer.
	SessionTTLSec int `koanf:"session_ttl_sec"`

	// PuzzlesFile and StringsFile replace the built-in catalog when set.
	PuzzlesFile string `koanf:"puzzles_file"`
	StringsFile string `koanf:"strings_file"`

	// Locale picks the UI string table.
	Locale string `koanf:"locale"`

	// JWTSecret enables player tokens when non-empty.
	JWTSecret string `koanf:"jwt_secret"`

	// Shuffle randomizes the word bank of new sessions.
	Shuffle bool `koanf:"shuffle"`

	// PuzzleWeights maps puzzle ids to score multipliers.
	PuzzleWeights map[string]float64 `koanf:"puzzle_weights"`

	// DefaultPuzzleWeight is used for puzzles without a weight.
	DefaultPuzzleWeight float64 `koanf:"default_puzzle_weight"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxLeaderboardLimit: 100,
		MaxSessions:         1_000,
		SessionTTLSec:       1_800,
		Locale:              "en",
		Shuffle:             true,
		PuzzleWeights:       map[string]float64{},
		DefaultPuzzleWeight: 1.0,
	}
}

// SessionTTL returns SessionTTLSec as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSec) * time.Second
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	sizes := []struct {
		name string
		v    int
	}{
		{"queue_size", c.QueueSize},
		{"worker_count", c.WorkerCount},
		{"dedupe_size", c.DedupeSize},
		{"max_leaderboard_limit", c.MaxLeaderboardLimit},
		{"max_sessions", c.MaxSessions},
		{"session_ttl_sec", c.SessionTTLSec},
	}
	for _, s := range sizes {
		if s.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, s.name, s.v)
		}
	}
	if c.DefaultPuzzleWeight <= 0 {
		return fmt.Errorf("%w: default_puzzle_weight must be positive", ErrInvalidConfig)
	}
	for id, w := range c.PuzzleWeights {
		if w <= 0 {
			return fmt.Errorf("%w: puzzle_weights[%s] must be positive", ErrInvalidConfig, id)
		}
	}
	return nil
}
