package sortbot

import (
	"context"
	"math/rand/v2"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/wordsort/internal/adapters/auth"
	"github.com/okian/wordsort/internal/adapters/http/api"
	service "github.com/okian/wordsort/internal/app"
	"github.com/okian/wordsort/internal/domain/puzzle"
	"github.com/okian/wordsort/internal/domain/types"
	"github.com/okian/wordsort/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startServer(t *testing.T, opts ...service.Option) string {
	t.Helper()
	svc := service.New(append([]service.Option{service.WithWorkerCount(2)}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(svc).Router())
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(context.Background())
	})
	return srv.URL
}

func smallConfig(url, mode string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = url
	cfg.Bots = 4
	cfg.Rounds = 2
	cfg.Workers = 2
	cfg.Mode = mode
	cfg.Words = 5
	cfg.TopN = 10
	cfg.Settle = 5 * time.Second
	return cfg
}

func TestRun(t *testing.T) {
	for _, mode := range []string{ModePointer, ModeTouch, ModeMixed} {
		Convey("Given bots playing in "+mode+" mode", t, func() {
			cfg := smallConfig(startServer(t), mode)

			stats, err := Run(context.Background(), cfg)

			So(err, ShouldBeNil)
			So(stats.Sessions, ShouldEqual, int64(8))
			So(stats.Checks, ShouldEqual, int64(8))
			So(stats.Moves, ShouldEqual, int64(40))
			So(stats.Failures, ShouldEqual, int64(0))
			So(stats.Verified, ShouldEqual, 4)
			So(stats.Leaderboard, ShouldEqual, 4)
			switch mode {
			case ModePointer:
				So(stats.TouchMoves, ShouldEqual, int64(0))
			case ModeTouch:
				So(stats.TouchMoves, ShouldEqual, int64(40))
			}
		})
	}

	Convey("Given a server issuing tokens", t, func() {
		iss, err := auth.NewIssuer("bot-secret")
		So(err, ShouldBeNil)
		cfg := smallConfig(startServer(t, service.WithIssuer(iss)), ModeMixed)
		cfg.Accuracy = 1

		stats, err := Run(context.Background(), cfg)

		So(err, ShouldBeNil)
		So(stats.Verified, ShouldEqual, 4)
	})

	Convey("Given an unreachable server", t, func() {
		cfg := smallConfig("http://127.0.0.1:1", ModePointer)
		cfg.Timeout = time.Second

		_, err := Run(context.Background(), cfg)

		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "health check")
	})

	Convey("Given an invalid config", t, func() {
		cfg := smallConfig("http://localhost", "gesture")
		_, err := Run(context.Background(), cfg)
		So(err, ShouldNotBeNil)
	})
}

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		rng := rand.New(rand.NewPCG(7, 0))
		data, key := generatePuzzle(rng, 0, 7, 3)

		Convey("Every word belongs to a generated category", func() {
			So(data.Words, ShouldHaveLength, 7)
			So(data.Categories, ShouldHaveLength, 3)
			So(key, ShouldHaveLength, 7)
			for _, w := range data.Words {
				So(key[w.Word], ShouldEqual, w.Category)
			}
		})

		Convey("The puzzle validates", func() {
			_, err := puzzle.New(data)
			So(err, ShouldBeNil)
		})

		Convey("Perfect accuracy always picks the answer", func() {
			for range 20 {
				So(pickTarget(rng, data, "cat-1", 1), ShouldEqual, "cat-1")
			}
		})

		Convey("Zero accuracy never picks the answer", func() {
			for range 20 {
				So(pickTarget(rng, data, "cat-1", 0), ShouldNotEqual, "cat-1")
			}
		})

		Convey("Layout rects address bucket containers, not category ids", func() {
			rects := containerRects(data)
			So(rects, ShouldHaveLength, 4)
			So(rects[0].ID, ShouldEqual, "bucket-word-bank")
			So(rects[2].ID, ShouldEqual, "bucket-cat-1")
			So(bucketCenters(data), ShouldContainKey, "cat-1")
		})
	})

	Convey("Expected scores follow the accuracy formula", t, func() {
		So(expectedScore(3, 4, 1), ShouldEqual, 75)
		So(expectedScore(4, 4, 1.5), ShouldEqual, 100)
		So(expectedScore(0, 0, 1), ShouldEqual, 0)
	})
}

func TestVerifyLeaderboard(t *testing.T) {
	Convey("Competition ranks are accepted", t, func() {
		board := []types.Entry{
			{Rank: 1, PlayerID: "a", Score: 100},
			{Rank: 2, PlayerID: "b", Score: 80},
			{Rank: 2, PlayerID: "c", Score: 80},
			{Rank: 4, PlayerID: "d", Score: 20},
		}
		So(verifyLeaderboard(board), ShouldBeNil)
		So(verifyLeaderboard(nil), ShouldBeNil)
	})

	Convey("Broken boards are rejected", t, func() {
		So(verifyLeaderboard([]types.Entry{{Rank: 2, Score: 1}}), ShouldNotBeNil)
		So(verifyLeaderboard([]types.Entry{{Rank: 1, Score: 1}, {Rank: 2, Score: 5}}), ShouldNotBeNil)
		So(verifyLeaderboard([]types.Entry{{Rank: 1, Score: 5}, {Rank: 2, Score: 5}}), ShouldNotBeNil)
		So(verifyLeaderboard([]types.Entry{{Rank: 1, Score: 5}, {Rank: 3, Score: 4}}), ShouldNotBeNil)
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("The default config validates", t, func() {
		So(DefaultConfig().Validate(), ShouldBeNil)
	})

	Convey("Bad fields are rejected", t, func() {
		for _, mutate := range []func(*Config){
			func(c *Config) { c.BaseURL = "" },
			func(c *Config) { c.Bots = 0 },
			func(c *Config) { c.Accuracy = 1.5 },
			func(c *Config) { c.Mode = "gesture" },
			func(c *Config) { c.Buckets = 1 },
			func(c *Config) { c.Words = 0 },
			func(c *Config) { c.Weight = 0 },
			func(c *Config) { c.TopN = 0 },
		} {
			cfg := DefaultConfig()
			mutate(&cfg)
			So(cfg.Validate(), ShouldNotBeNil)
		}
	})
}
