// Package sortbot drives a running wordsort service with concurrent bots
// that play generated puzzles through pointer and touch events, then checks
// the leaderboard agrees with what the bots scored.
package sortbot

import (
	"errors"
	"fmt"
	"time"
)

// Input modes.
const (
	ModePointer = "pointer"
	ModeTouch   = "touch"
	ModeMixed   = "mixed"
)

// Config holds configuration for a bot run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Bots     int           // Number of players
	Rounds   int           // Sessions played per bot
	Workers  int           // Number of concurrent bots
	Accuracy float64       // Probability a word is dropped on its category
	Mode     string        // pointer, touch or mixed
	Words    int           // Words per generated puzzle
	Buckets  int           // Categories per generated puzzle
	Weight   float64       // Server weight for inline puzzles
	TopN     int           // Leaderboard entries to fetch
	Seed     uint64        // Seed for puzzles and mistakes
	Timeout  time.Duration // HTTP request timeout
	Settle   time.Duration // How long to wait for scores to land
	Verbose  bool          // Log every round
}

// DefaultConfig returns a small run against a local server.
func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:9080",
		Bots:     20,
		Rounds:   3,
		Workers:  4,
		Accuracy: 0.8,
		Mode:     ModeMixed,
		Words:    8,
		Buckets:  3,
		Weight:   1,
		TopN:     50,
		Seed:     1,
		Timeout:  10 * time.Second,
		Settle:   30 * time.Second,
	}
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base url must not be empty")
	case c.Bots < 1, c.Rounds < 1, c.Workers < 1:
		return fmt.Errorf("bots, rounds and workers must be positive: %d/%d/%d", c.Bots, c.Rounds, c.Workers)
	case c.Accuracy < 0 || c.Accuracy > 1:
		return fmt.Errorf("accuracy must be within [0,1], got %v", c.Accuracy)
	case c.Mode != ModePointer && c.Mode != ModeTouch && c.Mode != ModeMixed:
		return fmt.Errorf("unknown mode %q", c.Mode)
	case c.Buckets < 2:
		return fmt.Errorf("need at least two categories, got %d", c.Buckets)
	case c.Words < 1:
		return fmt.Errorf("need at least one word, got %d", c.Words)
	case c.Weight <= 0:
		return fmt.Errorf("weight must be positive, got %v", c.Weight)
	case c.TopN < 1:
		return fmt.Errorf("top must be positive, got %d", c.TopN)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	Sessions    int64
	Moves       int64
	TouchMoves  int64
	Checks      int64
	Failures    int64
	Verified    int
	Leaderboard int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}
