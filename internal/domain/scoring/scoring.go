// Package scoring turns checked boards into leaderboard scores.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
)

const (
	defaultPuzzleWeight = 1.0
	maxScoreValue       = 100
)

// ErrEmptyBoard is returned for an input with no evaluated words.
var ErrEmptyBoard = errors.New("no words evaluated")

// Option applies a configuration option to the AccuracyScorer.
type Option func(*AccuracyScorer)

// WithPuzzleWeights sets per-puzzle weights. Non-positive weights are
// ignored; defaultWeight applies to puzzles without an entry.
func WithPuzzleWeights(weights map[string]float64, defaultWeight float64) Option {
	return func(s *AccuracyScorer) {
		for id, w := range weights {
			if w > 0 {
				s.weights[id] = w
			}
		}
		if defaultWeight > 0 {
			s.defaultWeight = defaultWeight
		}
	}
}

// Input abstracts the report fields needed for scoring.
type Input struct {
	PlayerID  string
	PuzzleID  string
	Correct   int
	Incorrect int
}

// Result contains the computed score for a player.
type Result struct {
	PlayerID string
	Score    float64
}

// Scorer computes a score from an input.
type Scorer interface {
	Score(ctx context.Context, in Input) (Result, error)
}

// AccuracyScorer scores 100 * correct/total scaled by the puzzle weight and
// clamped to 0..100.
type AccuracyScorer struct {
	weights       map[string]float64
	defaultWeight float64
}

// NewAccuracyScorer creates a scorer.
func NewAccuracyScorer(opts ...Option) *AccuracyScorer {
	s := &AccuracyScorer{
		weights:       make(map[string]float64),
		defaultWeight: defaultPuzzleWeight,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the score for in.
func (s *AccuracyScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	total := in.Correct + in.Incorrect
	if total <= 0 || in.Correct < 0 || in.Incorrect < 0 {
		return Result{}, ErrEmptyBoard
	}

	score := maxScoreValue * float64(in.Correct) / float64(total) * s.Weight(in.PuzzleID)
	score = math.Max(0, math.Min(maxScoreValue, score))
	return Result{PlayerID: in.PlayerID, Score: score}, nil
}

// Weight returns the weight applied to puzzleID.
func (s *AccuracyScorer) Weight(puzzleID string) float64 {
	if w, ok := s.weights[puzzleID]; ok {
		return w
	}
	return s.defaultWeight
}
