// Package repository holds the leaderboard: each player's best score and
// their rank among all players.
package repository

import "context"

// Entry represents a leaderboard row.
type Entry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"player_id"`
	Score    float64 `json:"score"`
	PuzzleID string  `json:"puzzle_id,omitempty"`
	ReportID string  `json:"report_id,omitempty"`
}

// Meta describes the report that produced a best score.
type Meta struct {
	PuzzleID string
	ReportID string
}

// Store provides read/write access to the ranking state.
type Store interface {
	// UpdateBest sets a new best score for player if higher than the
	// existing one. Returns true if the store changed.
	UpdateBest(ctx context.Context, playerID string, score float64, meta Meta) (bool, error)

	// Rank returns the current rank and score for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, playerID string) (Entry, error)

	// TopN returns the top-N entries ordered by score desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of players on the leaderboard.
	Count(ctx context.Context) int
}
