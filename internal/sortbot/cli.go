package sortbot

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/wordsort/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging logs to stdout and to logFile. An empty logFile gets a
// timestamped name.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "sortbot_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `sortbot
=======

Plays generated word-sorting puzzles against a running wordsort server with
concurrent bots, then checks the leaderboard holds each bot's best score.

Usage:
  sortbot [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -bots int          Number of players (default 20)
  -rounds int        Sessions per player (default 3)
  -workers int       Concurrent bots (default 4)
  -accuracy float    Chance a word is sorted correctly (default 0.8)
  -mode string       pointer, touch or mixed (default "mixed")
  -words int         Words per puzzle (default 8)
  -buckets int       Categories per puzzle (default 3)
  -weight float      Server weight for inline puzzles (default 1)
  -top int           Leaderboard entries to verify (default 50)
  -seed uint         Random seed (default 1)
  -timeout duration  HTTP request timeout (default 10s)
  -settle duration   Wait for scores to reach the leaderboard (default 30s)
  -log string        Log file (default sortbot_TIMESTAMP.log)
  -verbose           Log every round
  -help              Show this help message

Examples:
  sortbot -bots 100 -workers 16 -mode touch
  sortbot -accuracy 1 -url http://localhost:8080
`)
}
