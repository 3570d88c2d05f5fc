package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/wordsort/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		convey.Reset(clearEnv)

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.Shuffle, convey.ShouldBeTrue)
		})

		convey.Convey("When loading with environment variables", func() {
			setenv("WORDSORT_ADDR", ":8080")
			setenv("WORDSORT_QUEUE_SIZE", "500")
			setenv("WORDSORT_WORKER_COUNT", "3")
			setenv("WORDSORT_SHUFFLE", "false")
			setenv("WORDSORT_JWT_SECRET", "s3cret")
			setenv("WORDSORT_LOCALE", "de-DE")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
			convey.So(cfg.Shuffle, convey.ShouldBeFalse)
			convey.So(cfg.JWTSecret, convey.ShouldEqual, "s3cret")
			convey.So(cfg.Locale, convey.ShouldEqual, "de-DE")
		})

		convey.Convey("When loading a YAML file", func() {
			path := writeConfig(t, `
addr: ":9090"
max_sessions: 12
session_ttl_sec: 60
puzzles_file: /etc/wordsort/puzzles.yaml
puzzle_weights:
  produce: 1.5
default_puzzle_weight: 0.5
`)
			setenv("WORDSORT_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.MaxSessions, convey.ShouldEqual, 12)
			convey.So(cfg.SessionTTLSec, convey.ShouldEqual, 60)
			convey.So(cfg.PuzzlesFile, convey.ShouldEqual, "/etc/wordsort/puzzles.yaml")
			convey.So(cfg.PuzzleWeights["produce"], convey.ShouldEqual, 1.5)
			convey.So(cfg.DefaultPuzzleWeight, convey.ShouldEqual, 0.5)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
		})

		convey.Convey("When both file and environment are set", func() {
			setenv("WORDSORT_CONFIG", writeConfig(t, "addr: \":9090\"\nworker_count: 24\ndedupe_size: 7\n"))
			setenv("WORDSORT_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 7)
		})

		convey.Convey("When the YAML file is invalid", func() {
			setenv("WORDSORT_CONFIG", writeConfig(t, "invalid: yaml: content: ["))

			cfg, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When the file does not exist", func() {
			setenv("WORDSORT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			cfg, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When addr is empty", func() {
			setenv("WORDSORT_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When a number does not parse", func() {
			setenv("WORDSORT_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

var envKeys = []string{ //nolint:gochecknoglobals // test fixture
	"WORDSORT_CONFIG", "WORDSORT_ADDR", "WORDSORT_QUEUE_SIZE", "WORDSORT_WORKER_COUNT",
	"WORDSORT_SHUFFLE", "WORDSORT_JWT_SECRET", "WORDSORT_LOCALE",
}

func setenv(key, value string) {
	_ = os.Setenv(key, value)
}

func clearEnv() {
	for _, k := range envKeys {
		_ = os.Unsetenv(k)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
