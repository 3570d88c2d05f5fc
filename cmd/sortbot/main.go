package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/wordsort/internal/sortbot"
	"github.com/okian/wordsort/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	def := sortbot.DefaultConfig()
	var (
		baseURL  = flag.String("url", def.BaseURL, "Base URL of the service")
		bots     = flag.Int("bots", def.Bots, "Number of players")
		rounds   = flag.Int("rounds", def.Rounds, "Sessions per player")
		workers  = flag.Int("workers", def.Workers, "Concurrent bots")
		accuracy = flag.Float64("accuracy", def.Accuracy, "Chance a word is sorted correctly")
		mode     = flag.String("mode", def.Mode, "pointer, touch or mixed")
		words    = flag.Int("words", def.Words, "Words per puzzle")
		buckets  = flag.Int("buckets", def.Buckets, "Categories per puzzle")
		weight   = flag.Float64("weight", def.Weight, "Server weight for inline puzzles")
		topN     = flag.Int("top", def.TopN, "Leaderboard entries to verify")
		seed     = flag.Uint64("seed", def.Seed, "Random seed")
		timeout  = flag.Duration("timeout", def.Timeout, "HTTP request timeout")
		settle   = flag.Duration("settle", def.Settle, "Wait for scores to reach the leaderboard")
		logFile  = flag.String("log", "", "Log file (default: sortbot_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Log every round")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		sortbot.ShowHelp(os.Stdout)
		return
	}

	closer, err := sortbot.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := sortbot.Config{
		BaseURL:  *baseURL,
		Bots:     *bots,
		Rounds:   *rounds,
		Workers:  *workers,
		Accuracy: *accuracy,
		Mode:     *mode,
		Words:    *words,
		Buckets:  *buckets,
		Weight:   *weight,
		TopN:     *topN,
		Seed:     *seed,
		Timeout:  *timeout,
		Settle:   *settle,
		Verbose:  *verbose,
	}
	if _, err := sortbot.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "sortbot run failed", logger.Error(err))
		closer.Close()
		os.Exit(1)
	}
}
