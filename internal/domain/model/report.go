// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"time"
)

// ErrInvalidReport is returned by Validate.
var ErrInvalidReport = errors.New("invalid score report")

// ScoreReport is emitted by a session every time its board is checked.
type ScoreReport struct {
	ReportID  string    `json:"report_id"` // unique id for idempotency
	SessionID string    `json:"session_id"`
	PlayerID  string    `json:"player_id"`
	PuzzleID  string    `json:"puzzle_id"`
	Correct   int       `json:"correct"`
	Incorrect int       `json:"incorrect"`
	Moves     int       `json:"moves"`
	Complete  bool      `json:"complete"`
	TS        time.Time `json:"ts"`
}

// Total is the number of words evaluated.
func (r ScoreReport) Total() int { return r.Correct + r.Incorrect }

// Accuracy is the share of correctly placed words in [0, 1].
func (r ScoreReport) Accuracy() float64 {
	if r.Total() == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total())
}

// Validate rejects reports that cannot be scored.
func (r ScoreReport) Validate() error {
	switch {
	case r.ReportID == "":
		return errors.Join(ErrInvalidReport, errors.New("missing report id"))
	case r.PlayerID == "":
		return errors.Join(ErrInvalidReport, errors.New("missing player id"))
	case r.Correct < 0 || r.Incorrect < 0:
		return errors.Join(ErrInvalidReport, errors.New("negative counts"))
	case r.Total() == 0:
		return errors.Join(ErrInvalidReport, errors.New("empty board"))
	}
	return nil
}

// PlayerScore captures a player's best score used for ranking.
type PlayerScore struct {
	PlayerID string
	Score    float64
}
