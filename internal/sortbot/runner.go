package sortbot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/wordsort/pkg/logger"
)

// Run plays every bot and verifies the leaderboard.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log := logger.Get().Named("sortbot")
	stats := &Stats{StartTime: time.Now()}
	client := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting sortbot run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("bots", cfg.Bots),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.Float64("accuracy", cfg.Accuracy),
		logger.String("mode", cfg.Mode),
	)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	bots, err := newBots(ctx, client, &cfg, stats, log)
	if err != nil {
		return stats, err
	}
	if err := playAll(ctx, bots, &cfg); err != nil {
		return stats, err
	}
	if err := verify(ctx, client, bots, &cfg, stats, log); err != nil {
		return stats, fmt.Errorf("verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

// newBots names one player per bot. When the server issues tokens every bot
// authenticates; otherwise the player id travels in the request body.
func newBots(ctx context.Context, client *Client, cfg *Config, stats *Stats, log logger.Logger) ([]*bot, error) {
	runID := uuid.NewString()[:8]
	bots := make([]*bot, cfg.Bots)
	for i := range bots {
		id := fmt.Sprintf("bot-%s-%03d", runID, i)
		c := client
		tok, err := client.Token(ctx, id)
		switch {
		case errors.Is(err, errTokensDisabled):
		case err != nil:
			return nil, fmt.Errorf("token for %s: %w", id, err)
		default:
			c = client.withToken(tok)
		}
		bots[i] = &bot{
			id:     id,
			client: c,
			rng:    rand.New(rand.NewPCG(cfg.Seed, uint64(i))),
			cfg:    cfg,
			stats:  stats,
			log:    log,
		}
	}
	return bots, nil
}

// playAll fans bots out over cfg.Workers goroutines.
func playAll(ctx context.Context, bots []*bot, cfg *Config) error {
	work := make(chan *bot, cfg.Workers)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range work {
				if err := b.play(ctx); err != nil {
					atomic.AddInt64(&b.stats.Failures, 1)
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, b := range bots {
			select {
			case <-ctx.Done():
				return
			case work <- b:
			}
		}
	}()

	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (b *bot) play(ctx context.Context) error {
	for round := range b.cfg.Rounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		got, err := b.playRound(ctx, round)
		if err != nil {
			return fmt.Errorf("%s round %d: %w", b.id, round, err)
		}
		b.played++
		b.best = max(b.best, got)
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var movesPerSecond float64
	if stats.Duration > 0 {
		movesPerSecond = float64(stats.Moves) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("sessions", int(stats.Sessions)),
		logger.Int("moves", int(stats.Moves)),
		logger.Int("touchMoves", int(stats.TouchMoves)),
		logger.Int("checks", int(stats.Checks)),
		logger.Int("failures", int(stats.Failures)),
		logger.Int("verified", stats.Verified),
		logger.Int("leaderboardEntries", stats.Leaderboard),
		logger.Duration("duration", stats.Duration),
		logger.Float64("movesPerSecond", movesPerSecond),
	)
}
