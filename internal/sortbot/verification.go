package sortbot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/okian/wordsort/internal/domain/types"
	"github.com/okian/wordsort/pkg/logger"
)

const (
	scoreEpsilon = 1e-9
	pollInterval = 50 * time.Millisecond
)

// verify waits for every bot's best score to reach the leaderboard, then
// checks ordering and ranks of the top entries.
func verify(ctx context.Context, client *Client, bots []*bot, cfg *Config, stats *Stats, log logger.Logger) error {
	log.Info(ctx, "verifying results", logger.Int("players", len(bots)))

	deadline := time.Now().Add(cfg.Settle)
	for _, b := range bots {
		if err := waitForBest(ctx, client, b, deadline); err != nil {
			return err
		}
		stats.Verified++
	}

	board, err := client.Leaderboard(ctx, cfg.TopN)
	if err != nil {
		return fmt.Errorf("leaderboard: %w", err)
	}
	stats.Leaderboard = len(board)
	if err := verifyLeaderboard(board); err != nil {
		return err
	}

	log.Info(ctx, "verification completed",
		logger.Int("verified", stats.Verified),
		logger.Int("leaderboardEntries", len(board)),
	)
	return nil
}

func waitForBest(ctx context.Context, client *Client, b *bot, deadline time.Time) error {
	for {
		e, err := client.Rank(ctx, b.id)
		var apiErr *APIError
		switch {
		case err == nil && math.Abs(e.Score-b.best) < scoreEpsilon:
			return nil
		case err == nil && e.Score > b.best+scoreEpsilon:
			return fmt.Errorf("%s: leaderboard has %.3f, bot never scored above %.3f", b.id, e.Score, b.best)
		case err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound):
			return fmt.Errorf("rank %s: %w", b.id, err)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%s: best score %.3f not on leaderboard (last %.3f)", b.id, b.best, e.Score)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// verifyLeaderboard checks scores never increase and ties share a rank.
func verifyLeaderboard(board []types.Entry) error {
	for i, e := range board {
		if i == 0 {
			if e.Rank != 1 {
				return fmt.Errorf("first entry has rank %d", e.Rank)
			}
			continue
		}
		prev := board[i-1]
		switch {
		case e.Score > prev.Score:
			return fmt.Errorf("entry %d (%.3f) outscores entry %d (%.3f)", i, e.Score, i-1, prev.Score)
		case e.Score == prev.Score && e.Rank != prev.Rank:
			return fmt.Errorf("tied entries %d and %d have ranks %d and %d", i-1, i, prev.Rank, e.Rank)
		case e.Score < prev.Score && e.Rank != i+1:
			return fmt.Errorf("entry %d has rank %d, want %d", i, e.Rank, i+1)
		}
	}
	return nil
}
